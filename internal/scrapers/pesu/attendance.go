package pesu

import (
	"context"
	"strconv"
	"strings"

	"pesuacademy/internal/components/telemetry"
	"pesuacademy/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

const report_client_get_attendance = "client.get-attendance"

const attendanceEmptySentinel = "Data Not Available"

// parseClasses parses "attended/total", both values are nil unless both are integers.
func parseClasses(text string) (attended, total *int) {
	left, right, found := strings.Cut(text, "/")
	if !found {
		return nil, nil
	}
	a, err := strconv.Atoi(strings.TrimSpace(left))
	if err != nil {
		return nil, nil
	}
	t, err := strconv.Atoi(strings.TrimSpace(right))
	if err != nil {
		return nil, nil
	}
	return &a, &t
}

func parsePercentage(text string) *float64 {
	text = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(text), "%"))
	value, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return nil
	}
	return &value
}

func parseAttendance(doc *goquery.Document, tel telemetry.API) []Course {
	table := doc.Find("table.box-shadow").First()
	if table.Length() == 0 || strings.Contains(table.Text(), attendanceEmptySentinel) {
		return []Course{}
	}

	courses := []Course{}
	table.Find("tbody tr").Each(func(i int, row *goquery.Selection) {
		columns := row.Find("td")
		if columns.Length() < 4 {
			tel.ReportWarning("attendance.columns", i, columns.Length())
			return
		}

		attended, total := parseClasses(htmlutil.Text(columns.Eq(2)))
		percentage := parsePercentage(htmlutil.Text(columns.Eq(3)))

		courses = append(courses, Course{
			Code:  htmlutil.Text(columns.Eq(0)),
			Title: htmlutil.Text(columns.Eq(1)),
			Attendance: &Attendance{
				Attended:   attended,
				Total:      total,
				Percentage: percentage,
			},
		})
	})
	return courses
}

func (s *Session) attendance(ctx context.Context, semesterId string) ([]Course, error) {
	doc, err := s.fetchPage(ctx, report_client_get_attendance, AttendancePage, map[string]string{
		"batchClassId": semesterId,
	})
	if err != nil {
		return nil, err
	}
	return parseAttendance(doc, s.tel), nil
}
