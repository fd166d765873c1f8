package pesu

import (
	"context"
	"regexp"
	"strings"

	"pesuacademy/internal/components/telemetry"

	"github.com/PuerkitoBio/goquery"
)

const report_client_get_topics = "client.get-topics"

// only the first three arguments of the handler are needed to fetch material links
var topicHandlerRegex = regexp.MustCompile(`handleclasscoursecontentunit\('([^']*)','([^']*)','([^']*)'`)

const untitledTopic = "Untitled Topic"

func parseTopics(doc *goquery.Document, tel telemetry.API) []Topic {
	table := doc.Find("table.table-bordered").First()
	if table.Length() == 0 {
		return []Topic{}
	}

	topics := []Topic{}
	table.Find("tbody tr").Each(func(i int, row *goquery.Selection) {
		onclick, exists := row.Attr("onclick")
		if !exists || onclick == "" {
			tel.ReportWarning("topics.onclick", i)
			return
		}
		groups := topicHandlerRegex.FindStringSubmatch(onclick)
		if len(groups) < 4 {
			tel.ReportWarning("topics.onclick", i, onclick)
			return
		}

		titleTag := row.Find("span.short-title").First()
		if titleTag.Length() == 0 {
			tel.ReportWarning("topics.title", i, onclick)
			return
		}
		title := strings.TrimSpace(titleTag.AttrOr("title", untitledTopic))

		topics = append(topics, Topic{
			Title:    title,
			ID:       groups[1],
			CourseID: groups[2],
			UnitID:   groups[3],
		})
	})
	return topics
}

func (s *Session) topics(ctx context.Context, unitId string) ([]Topic, error) {
	doc, err := s.fetchPage(ctx, report_client_get_topics, UnitDetailPage, map[string]string{
		"coursecontentid": unitId,
	})
	if err != nil {
		return nil, err
	}
	return parseTopics(doc, s.tel), nil
}
