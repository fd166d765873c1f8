package pesu

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"pesuacademy/internal/components/telemetry"
	"pesuacademy/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

const report_client_get_announcements = "client.get-announcements"

const (
	announcementDateLayout   = "2-January-2006"
	announcementDefaultTitle = "No Title"
	attachmentLinkSelector   = "a[href*=handleDownloadAnoncemntdoc]"
)

var attachmentIdRegex = regexp.MustCompile(`handleDownloadAnoncemntdoc\('(\d+)'\)`)

// paragraphs trims every line of a block of text, collapsing spaces and
// dropping blank lines.
func paragraphs(text string) string {
	lines := strings.Split(text, "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		line = htmlutil.Clean(line)
		if line == "" {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}

func parseAnnouncement(panel *goquery.Selection, urls materialUrls, location *time.Location) (Announcement, error) {
	title := htmlutil.Text(panel.Find("h4.text-info").First())
	if title == "" {
		title = announcementDefaultTitle
	}

	dateText := htmlutil.Text(panel.Find("span.text-muted").First())
	date, err := time.ParseInLocation(announcementDateLayout, dateText, location)
	if err != nil {
		return Announcement{}, fmt.Errorf("parse date: %w", err)
	}

	content := panel.Find("div.col-md-12").First()
	if content.Length() == 0 {
		return Announcement{}, fmt.Errorf("content not found")
	}

	var attachments []string
	content.Find(attachmentLinkSelector).Each(func(_ int, link *goquery.Selection) {
		groups := attachmentIdRegex.FindStringSubmatch(link.AttrOr("href", ""))
		if len(groups) < 2 {
			return
		}
		attachments = append(
			attachments,
			urls.appUrl(fmt.Sprintf("/s/studentProfilePESUAdmin/downloadAnoncemntdoc/%s", groups[1])),
		)
	})

	clone := content.Clone()
	clone.Find("a.readmorelink").Remove()
	// Has matches against the original document, the clone is detached from it
	clone.Find("div").FilterFunction(func(_ int, div *goquery.Selection) bool {
		return div.Find(attachmentLinkSelector).Length() > 0
	}).Remove()
	clone.Find(attachmentLinkSelector).Remove()

	return Announcement{
		Title:       title,
		Date:        date,
		Content:     paragraphs(clone.Text()),
		Attachments: attachments,
	}, nil
}

func parseAnnouncements(doc *goquery.Document, urls materialUrls, location *time.Location, tel telemetry.API) []Announcement {
	announcements := []Announcement{}
	doc.Find("div.elem-info-wrapper").Each(func(i int, panel *goquery.Selection) {
		announcement, err := parseAnnouncement(panel, urls, location)
		if err != nil {
			tel.ReportWarning("announcements.panel", i, err)
			return
		}
		announcements = append(announcements, announcement)
	})
	return announcements
}

func (s *Session) announcements(ctx context.Context) ([]Announcement, error) {
	doc, err := s.fetchPage(ctx, report_client_get_announcements, AnnouncementsPage, map[string]string{
		"url": "studentProfilePESUAdmin",
	})
	if err != nil {
		return nil, err
	}
	return parseAnnouncements(doc, s, s.clock.Location(), s.tel), nil
}
