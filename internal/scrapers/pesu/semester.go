package pesu

import (
	"strconv"
	"strings"

	"pesuacademy/internal/components/telemetry"
	"pesuacademy/lib/textutil"

	"github.com/PuerkitoBio/goquery"
)

// parseSemesters reads the <option> list returned by the semester endpoint.
// The display text carries the semester number ("Sem-3") and the value
// carries the id wrapped in stray quotes ("\"2763\"").
func parseSemesters(doc *goquery.Document, tel telemetry.API) (map[int]string, error) {
	options := doc.Find("option")
	if options.Length() == 0 {
		return nil, ErrNoSemesters
	}

	semesters := map[int]string{}
	options.Each(func(_ int, option *goquery.Selection) {
		text := strings.TrimSpace(option.Text())
		rawValue := option.AttrOr("value", "")

		number, ok := textutil.FirstInt(text)
		if !ok {
			tel.ReportWarning("semesters.number", text)
			return
		}
		id := textutil.Digits(rawValue)
		if id == "" {
			tel.ReportWarning("semesters.id", text, rawValue)
			return
		}
		semester, err := strconv.Atoi(number)
		if err != nil {
			tel.ReportWarning("semesters.number", err, text)
			return
		}
		semesters[semester] = id
	})

	if len(semesters) == 0 {
		return nil, ErrNoSemesters
	}
	return semesters, nil
}
