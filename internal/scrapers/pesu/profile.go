package pesu

import (
	"context"
	"strings"

	"pesuacademy/lib/htmlutil"
	"pesuacademy/lib/textutil"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

const report_client_get_profile = "client.get-profile"

const (
	notAvailable       = "N/A"
	profileImagePrefix = "data:image/jpeg;base64,"
)

var isInput = htmlutil.IsElement("input")

// findLabel returns the first label in container whose text is `text`,
// falling back to the first label that contains it.
func findLabel(container *goquery.Selection, text string) *goquery.Selection {
	target := textutil.NormalizeName(text)
	labels := container.Find("label")

	exact := labels.FilterFunction(func(_ int, label *goquery.Selection) bool {
		return textutil.NormalizeName(label.Text()) == target
	})
	if exact.Length() > 0 {
		return exact.First()
	}
	return labels.FilterFunction(func(_ int, label *goquery.Selection) bool {
		return strings.Contains(textutil.NormalizeName(label.Text()), target)
	}).First()
}

// labelValue looks up the value shown next to a label, the value is either the
// label that follows it or the first input after it in the container.
func labelValue(container *goquery.Selection, text string) string {
	if container.Length() == 0 {
		return notAvailable
	}
	label := findLabel(container, text)
	if label.Length() == 0 {
		return notAvailable
	}

	value := label.NextAllFiltered("label").First()
	if value.Length() > 0 {
		return htmlutil.Text(value)
	}

	input := htmlutil.FindNext(label.Nodes[0], func(n *html.Node) bool {
		if !isInput(n) {
			return false
		}
		_, hasValue := htmlutil.Attr(n, "value")
		return hasValue
	})
	if input != nil && container.Contains(input) {
		value, _ := htmlutil.Attr(input, "value")
		return strings.TrimSpace(value)
	}
	return notAvailable
}

// sectionAfter finds the first element matching `selector` that comes after
// the h4 header titled `header`.
func sectionAfter(doc *goquery.Document, header, selector string) *goquery.Selection {
	heading := doc.Find("h4").FilterFunction(func(_ int, h *goquery.Selection) bool {
		return htmlutil.Text(h) == header
	}).First()
	if heading.Length() == 0 {
		return doc.Selection.Slice(0, 0)
	}

	candidates := doc.Find(selector)
	next := htmlutil.FindNext(heading.Nodes[0], func(n *html.Node) bool {
		return candidates.IsNodes(n)
	})
	if next == nil {
		return doc.Selection.Slice(0, 0)
	}
	return doc.FindNodes(next)
}

func parsePersonalDetails(doc *goquery.Document) PersonalDetails {
	container := doc.Find("div.media-body").First()

	image := doc.Find("img.media-object").First().AttrOr("src", "")
	image = strings.TrimPrefix(image, profileImagePrefix)

	return PersonalDetails{
		Name:           labelValue(container, "Name"),
		PESUID:         labelValue(container, "PESU Id"),
		SRN:            labelValue(container, "SRN"),
		Program:        labelValue(container, "Program"),
		Branch:         labelValue(container, "Branch"),
		Semester:       labelValue(container, "Semester"),
		Section:        labelValue(container, "Section"),
		Email:          labelValue(container, "Email ID"),
		Contact:        labelValue(container, "Contact No"),
		AadharNo:       labelValue(container, "Aadhar No"),
		NameAsInAadhar: labelValue(container, "Name as in aadhar"),
		Image:          image,
	}
}

func parseParent(container *goquery.Selection, nameLabel string) ParentDetails {
	return ParentDetails{
		Name:          labelValue(container, nameLabel),
		Mobile:        labelValue(container, "Mobile"),
		Email:         labelValue(container, "Email"),
		Occupation:    labelValue(container, "Occupation"),
		Qualification: labelValue(container, "Qualification"),
		Designation:   labelValue(container, "Designation"),
		Employer:      labelValue(container, "Employer"),
	}
}

func parseProfile(doc *goquery.Document) Profile {
	other := sectionAfter(doc, "Other Information", "div.info-contents")
	exam := sectionAfter(doc, "Qualifying examination", "div.info-contents")
	address := sectionAfter(doc, "Address", "div")

	// the portal gives no marker to tell the two parent columns apart, the
	// father is assumed to always come first.
	parentColumns := sectionAfter(doc, "Parent Details", "div").Find("div.col-md-6")

	return Profile{
		Personal: parsePersonalDetails(doc),
		OtherInfo: OtherInformation{
			SSLCMarks:  labelValue(other, "SSLC Marks"),
			PUCMarks:   labelValue(other, "PUC Marks"),
			DOB:        labelValue(other, "Date of birth"),
			BloodGroup: labelValue(other, "Blood Group"),
		},
		QualifyingExam: QualifyingExamination{
			Exam:  labelValue(exam, "Exam"),
			Rank:  labelValue(exam, "Rank"),
			Score: labelValue(exam, "Score"),
		},
		Parents: Parents{
			Father: parseParent(parentColumns.Eq(0), "Father Name"),
			Mother: parseParent(parentColumns.Eq(1), "Mother Name"),
		},
		Address: Address{
			Present:   labelValue(address, "Present Address"),
			Permanent: labelValue(address, "Permanent Address"),
		},
	}
}

func (s *Session) profile(ctx context.Context) (Profile, error) {
	doc, err := s.fetchPage(ctx, report_client_get_profile, ProfilePage, nil)
	if err != nil {
		return Profile{}, err
	}
	return parseProfile(doc), nil
}
