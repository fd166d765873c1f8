package pesu

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"pesuacademy/internal/components/telemetry"
	"pesuacademy/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

const report_client_get_material_links = "client.get-material-links"

var (
	downloadDocRegex = regexp.MustCompile(`downloadcoursedoc\('([^']*)'\)`)
	loadIframeRegex  = regexp.MustCompile(`loadIframe\('([^']*)'`)
)

// materialUrls resolves the ids and paths found in the material links page.
type materialUrls interface {
	absolute(path string) string
	appUrl(path string) string
}

func parseMaterialLinks(doc *goquery.Document, urls materialUrls, tel telemetry.API) []MaterialLink {
	links := []MaterialLink{}
	doc.Find("div.link-preview").Each(func(i int, container *goquery.Selection) {
		onclick := container.AttrOr("onclick", "")

		if strings.Contains(onclick, "downloadcoursedoc") {
			groups := downloadDocRegex.FindStringSubmatch(onclick)
			if len(groups) < 2 {
				tel.ReportWarning("material-links.download", i, onclick)
				return
			}
			links = append(links, MaterialLink{
				Title: htmlutil.Text(container),
				URL:   urls.appUrl(fmt.Sprintf("/s/referenceMeterials/downloadcoursedoc/%s", groups[1])),
				IsPDF: false,
			})
			return
		}

		anchor := container.Find("a").First()
		if anchor.Length() == 0 {
			tel.ReportWarning("material-links.anchor", i)
			return
		}
		groups := loadIframeRegex.FindStringSubmatch(anchor.AttrOr("onclick", ""))
		if len(groups) < 2 {
			tel.ReportWarning("material-links.iframe", i, anchor.AttrOr("onclick", ""))
			return
		}
		partial, _, _ := strings.Cut(groups[1], "#")
		links = append(links, MaterialLink{
			Title: htmlutil.Text(anchor),
			URL:   urls.absolute(partial),
			IsPDF: true,
		})
	})
	return links
}

func (s *Session) materialLinks(ctx context.Context, topic Topic, materialTypeId string) ([]MaterialLink, error) {
	doc, err := s.fetchPage(ctx, report_client_get_material_links, MaterialLinksPage, map[string]string{
		"selectedData": topic.CourseID,
		"id":           materialTypeId,
		"unitid":       topic.ID,
		"url":          "studentProfilePESUAdmin",
	})
	if err != nil {
		return nil, err
	}
	return parseMaterialLinks(doc, s, s.tel), nil
}
