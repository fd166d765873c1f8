package pesu

import (
	"context"
	"regexp"
	"strings"

	"pesuacademy/internal/components/telemetry"

	"github.com/PuerkitoBio/goquery"
)

const report_client_get_units = "client.get-units"

var unitIdRegex = regexp.MustCompile(`handleclassUnit\('(\d+)'\)`)

func parseUnits(doc *goquery.Document, tel telemetry.API) []Unit {
	units := []Unit{}
	doc.Find("ul#courselistunit a").Each(func(i int, link *goquery.Selection) {
		title := strings.TrimSpace(link.AttrOr("title", ""))
		onclick := link.AttrOr("onclick", "")
		if title == "" || onclick == "" {
			tel.ReportWarning("units.link", i, title, onclick)
			return
		}
		groups := unitIdRegex.FindStringSubmatch(onclick)
		if len(groups) < 2 {
			tel.ReportWarning("units.onclick", i, onclick)
			return
		}
		units = append(units, Unit{
			Title: title,
			ID:    groups[1],
		})
	})
	return units
}

func (s *Session) units(ctx context.Context, courseId string) ([]Unit, error) {
	doc, err := s.fetchPage(ctx, report_client_get_units, CourseDetailPage, map[string]string{
		"id": courseId,
	})
	if err != nil {
		return nil, err
	}
	return parseUnits(doc, s.tel), nil
}
