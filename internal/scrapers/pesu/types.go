package pesu

import (
	"fmt"
	"strconv"
	"time"
)

// Attendance is the attendance summary of a single course, fields are nil
// when the portal shows something that isn't a number (ex. "NA").
type Attendance struct {
	Attended   *int
	Total      *int
	Percentage *float64
}

func (a Attendance) String() string {
	classes := "NA"
	if a.Attended != nil && a.Total != nil {
		classes = fmt.Sprintf("%d/%d", *a.Attended, *a.Total)
	}
	percentage := "NA"
	if a.Percentage != nil {
		percentage = strconv.FormatFloat(*a.Percentage, 'f', -1, 64) + "%"
	}
	return fmt.Sprintf("%s (%s)", classes, percentage)
}

type Course struct {
	Code   string
	Title  string
	Type   string
	Status string
	// ID is only present on courses from the courses page, it is used to
	// fetch units.
	ID         string
	Attendance *Attendance
}

type Unit struct {
	Title string
	ID    string
}

// Topic carries the course and unit ids it was listed under since they are
// needed to fetch its material links.
type Topic struct {
	Title    string
	ID       string
	CourseID string
	UnitID   string
}

type MaterialLink struct {
	Title string
	URL   string
	IsPDF bool
}

type PersonalDetails struct {
	Name           string
	PESUID         string
	SRN            string
	Program        string
	Branch         string
	Semester       string
	Section        string
	Email          string
	Contact        string
	AadharNo       string
	NameAsInAadhar string
	// Image is the base64 encoded jpeg of the student's photo.
	Image string
}

type OtherInformation struct {
	SSLCMarks  string
	PUCMarks   string
	DOB        string
	BloodGroup string
}

type QualifyingExamination struct {
	Exam  string
	Rank  string
	Score string
}

type ParentDetails struct {
	Name          string
	Mobile        string
	Email         string
	Occupation    string
	Qualification string
	Designation   string
	Employer      string
}

type Parents struct {
	Father ParentDetails
	Mother ParentDetails
}

type Address struct {
	Present   string
	Permanent string
}

type Profile struct {
	Personal       PersonalDetails
	OtherInfo      OtherInformation
	QualifyingExam QualifyingExamination
	Parents        Parents
	Address        Address
}

// Credits are kept as the portal renders them, use Values to get numbers.
type Credits struct {
	Earned string
	Total  string
}

func (c Credits) Values() (earned, total float64, ok bool) {
	earned, err := strconv.ParseFloat(c.Earned, 64)
	if err != nil {
		return 0, 0, false
	}
	total, err = strconv.ParseFloat(c.Total, 64)
	if err != nil {
		return 0, 0, false
	}
	return earned, total, true
}

type Assessment struct {
	Name  string
	Marks string
	// Total is empty for assessments that only have a grade.
	Total string
}

type CourseResult struct {
	Code        string
	Title       string
	Credits     *Credits
	Assessments []Assessment
}

type SemesterResult struct {
	SGPA    string
	Credits *Credits
	Courses []CourseResult
}

type Announcement struct {
	Title   string
	Date    time.Time
	Content string
	// Attachments are absolute download urls, nil when there are none.
	Attachments []string
}

type SeatingInformation struct {
	Name       string
	CourseCode string
	Date       string
	Time       string
	Terminal   string
	Block      string
}
