package pesu

import (
	"context"
	"strings"

	"pesuacademy/internal/components/telemetry"
	"pesuacademy/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

const report_client_get_courses = "client.get-courses"

const coursesEmptySentinel = "No subjects found"

func parseCourses(doc *goquery.Document, tel telemetry.API) []Course {
	table := doc.Find("table.table-hover").First()
	if table.Length() == 0 || strings.Contains(table.Text(), coursesEmptySentinel) {
		return []Course{}
	}

	courses := []Course{}
	table.Find("tbody tr").Each(func(i int, row *goquery.Selection) {
		rowId := row.AttrOr("id", "")
		if !strings.Contains(rowId, "rowWiseCourseContent_") {
			tel.ReportWarning("courses.row-id", i, rowId)
			return
		}
		columns := row.Find("td")
		if columns.Length() < 4 {
			tel.ReportWarning("courses.columns", i, columns.Length())
			return
		}

		courses = append(courses, Course{
			Code:   htmlutil.Text(columns.Eq(0)),
			Title:  htmlutil.Text(columns.Eq(1)),
			Type:   htmlutil.Text(columns.Eq(2)),
			Status: htmlutil.Text(columns.Eq(3)),
			ID:     rowId[strings.LastIndex(rowId, "_")+1:],
		})
	})
	return courses
}

func (s *Session) courses(ctx context.Context, semesterId string) ([]Course, error) {
	doc, err := s.fetchPage(ctx, report_client_get_courses, CoursesPage, map[string]string{
		"id": semesterId,
	})
	if err != nil {
		return nil, err
	}
	return parseCourses(doc, s.tel), nil
}
