package pesu

import (
	"context"
	"strings"

	"pesuacademy/internal/components/telemetry"
	"pesuacademy/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

const report_client_get_results = "client.get-results"

// parseFraction splits "earned/total", total is the same as earned when the
// text has no "/".
func parseFraction(text string) *Credits {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	earned, total, found := strings.Cut(text, "/")
	earned = strings.TrimSpace(earned)
	if !found {
		return &Credits{Earned: earned, Total: earned}
	}
	return &Credits{Earned: earned, Total: strings.TrimSpace(total)}
}

func parseAssessments(container *goquery.Selection) []Assessment {
	assessments := []Assessment{}
	bar := container.Find("div.dashboard-info-bar").First()
	bar.ChildrenFiltered("div").Each(func(_ int, item *goquery.Selection) {
		name := htmlutil.Text(item.Find("h6").First())
		if name == "" {
			return
		}

		assessment := Assessment{Name: name}
		marks := item.Find("span.dark-text").First()
		grade := item.Find("span.f-size-2x-big").First()
		switch {
		case marks.Length() > 0:
			assessment.Marks = htmlutil.Text(marks)
			total := htmlutil.NextTextSibling(marks.Nodes[0])
			if strings.HasPrefix(total, "/") {
				assessment.Total = strings.TrimSpace(strings.ReplaceAll(total, "/", ""))
			}
		case grade.Length() > 0:
			assessment.Marks = htmlutil.Text(grade)
		}
		assessments = append(assessments, assessment)
	})
	return assessments
}

func parseCourseResult(container *goquery.Selection) (CourseResult, bool) {
	header := container.Find("div.header-info").First()
	if header.Length() == 0 {
		return CourseResult{}, false
	}

	code, title, found := strings.Cut(htmlutil.Text(header.Find("h6").First()), "-")
	if !found {
		return CourseResult{}, false
	}

	var credits *Credits
	creditsTag := header.Find("h6.text-right").First()
	if creditsTag.Length() > 0 {
		parts := strings.Split(htmlutil.Text(creditsTag), ":")
		credits = parseFraction(parts[len(parts)-1])
	}

	return CourseResult{
		Code:        strings.TrimSpace(code),
		Title:       strings.TrimSpace(title),
		Credits:     credits,
		Assessments: parseAssessments(container),
	}, true
}

func parseResults(doc *goquery.Document, tel telemetry.API) SemesterResult {
	result := SemesterResult{Courses: []CourseResult{}}

	summary := doc.Find("div.dashboard-info-bar").FilterFunction(func(_ int, bar *goquery.Selection) bool {
		return bar.Closest("div.multiple-info-wrapper").Length() == 0
	}).First()
	fields := summary.ChildrenFiltered("div")
	if fields.Length() < 2 {
		return result
	}
	result.Credits = parseFraction(htmlutil.LastText(fields.Get(0)))
	result.SGPA = htmlutil.LastText(fields.Get(1))

	doc.Find("div.multiple-info-wrapper").First().Find("div.clearfix").Each(func(i int, container *goquery.Selection) {
		if container.Find("div.header-info").Length() == 0 {
			return
		}
		course, ok := parseCourseResult(container)
		if !ok {
			tel.ReportWarning("results.course", i, htmlutil.Text(container.Find("div.header-info h6").First()))
			return
		}
		result.Courses = append(result.Courses, course)
	})
	return result
}

func (s *Session) results(ctx context.Context, semesterId string) (SemesterResult, error) {
	doc, err := s.fetchPage(ctx, report_client_get_results, ResultsPage, map[string]string{
		"semid": semesterId,
	})
	if err != nil {
		return SemesterResult{}, err
	}
	return parseResults(doc, s.tel), nil
}
