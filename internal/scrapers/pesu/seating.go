package pesu

import (
	"context"
	"strings"

	"pesuacademy/internal/components/telemetry"
	"pesuacademy/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

const report_client_get_seating_info = "client.get-seating-info"

const seatingEmptySentinel = "No Test Seating Info is available"

func parseSeatingInfo(doc *goquery.Document, tel telemetry.API) []SeatingInformation {
	table := doc.Find("table#seatinginfo").First()
	if table.Length() == 0 || strings.Contains(doc.Text(), seatingEmptySentinel) {
		return []SeatingInformation{}
	}

	seating := []SeatingInformation{}
	table.Find("tbody tr").Each(func(i int, row *goquery.Selection) {
		columns := row.Find("td")
		if columns.Length() < 6 {
			tel.ReportWarning("seating-info.columns", i, columns.Length())
			return
		}
		seating = append(seating, SeatingInformation{
			Name:       htmlutil.Text(columns.Eq(0)),
			CourseCode: htmlutil.Text(columns.Eq(1)),
			Date:       htmlutil.Text(columns.Eq(2)),
			Time:       htmlutil.Text(columns.Eq(3)),
			Terminal:   htmlutil.Text(columns.Eq(4)),
			Block:      htmlutil.Text(columns.Eq(5)),
		})
	})
	return seating
}

func (s *Session) seatingInfo(ctx context.Context) ([]SeatingInformation, error) {
	doc, err := s.fetchPage(ctx, report_client_get_seating_info, SeatingInfoPage, nil)
	if err != nil {
		return nil, err
	}
	return parseSeatingInfo(doc, s.tel), nil
}
