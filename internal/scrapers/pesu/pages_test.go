package pesu

import (
	"strings"
	"testing"
	"time"

	"pesuacademy/internal/components/chrono"
	"pesuacademy/internal/components/telemetry"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestParseSemesters(t *testing.T) {
	rec := telemetry.NewRecorder()
	semesters, err := parseSemesters(fixtureDoc(t, "semesters.html"), rec)
	require.NoError(t, err)
	require.Equal(t, map[int]string{
		1: "2763",
		2: "2764",
		3: "2765",
	}, semesters)
	require.Len(t, rec.Reports("warning", "semesters."), 2)

	_, err = parseSemesters(fixtureDoc(t, "home.html"), rec)
	require.ErrorIs(t, err, ErrNoSemesters)
}

func TestParseCourses(t *testing.T) {
	rec := telemetry.NewRecorder()
	courses := parseCourses(fixtureDoc(t, "courses.html"), rec)

	expected := []Course{
		{Code: "UE20CS301", Title: "Data Structures and its Applications", Type: "Core Course", Status: "Active", ID: "20975"},
		{Code: "UE20CS302", Title: "Design and Analysis of Algorithms", Type: "Core Course", Status: "Active", ID: "20976"},
		{Code: "UE20CS303", Title: "Operating Systems", Type: "Core Course", Status: "Completed", ID: "20978"},
	}
	if diff := cmp.Diff(expected, courses); diff != "" {
		t.Fatal(diff)
	}
	require.Len(t, rec.Reports("warning", "courses."), 2)
}

func TestParseAttendance(t *testing.T) {
	rec := telemetry.NewRecorder()
	courses := parseAttendance(fixtureDoc(t, "attendance.html"), rec)

	expected := []Course{
		{
			Code:       "UE20CS301",
			Title:      "Data Structures and its Applications",
			Attendance: &Attendance{Attended: ptr(18), Total: ptr(20), Percentage: ptr(90.0)},
		},
		{
			Code:       "UE20CS302",
			Title:      "Design and Analysis of Algorithms",
			Attendance: &Attendance{},
		},
		{
			Code:       "UE20CS303",
			Title:      "Operating Systems",
			Attendance: &Attendance{Attended: ptr(15), Total: ptr(21), Percentage: ptr(71.43)},
		},
		{
			Code:       "UE20MA301",
			Title:      "Linear Algebra",
			Attendance: &Attendance{},
		},
	}
	if diff := cmp.Diff(expected, courses); diff != "" {
		t.Fatal(diff)
	}
	require.Len(t, rec.Reports("warning", "attendance.columns"), 1)
}

func TestAttendanceValues(t *testing.T) {
	cases := []struct {
		classes    string
		percentage string
		expected   Attendance
		display    string
	}{
		{classes: "18/20", percentage: "90", expected: Attendance{Attended: ptr(18), Total: ptr(20), Percentage: ptr(90.0)}, display: "18/20 (90%)"},
		{classes: "NA", percentage: "NA", expected: Attendance{}, display: "NA (NA)"},
		{classes: "18/", percentage: "85.5%", expected: Attendance{Percentage: ptr(85.5)}, display: "NA (85.5%)"},
		{classes: " 3 / 4 ", percentage: "", expected: Attendance{Attended: ptr(3), Total: ptr(4)}, display: "3/4 (NA)"},
	}
	for _, c := range cases {
		attended, total := parseClasses(c.classes)
		got := Attendance{
			Attended:   attended,
			Total:      total,
			Percentage: parsePercentage(c.percentage),
		}
		if diff := cmp.Diff(c.expected, got); diff != "" {
			t.Fatal(c.classes, diff)
		}
		require.Equal(t, c.display, got.String())
	}
}

func TestEmptySentinels(t *testing.T) {
	rec := telemetry.NewRecorder()

	require.Empty(t, parseCourses(fixtureDoc(t, "courses_empty.html"), rec))
	require.Empty(t, parseAttendance(fixtureDoc(t, "attendance_empty.html"), rec))
	require.Empty(t, parseSeatingInfo(fixtureDoc(t, "seating_empty.html"), rec))

	// pages without their landmark element
	blank := fixtureDoc(t, "home.html")
	require.Empty(t, parseCourses(blank, rec))
	require.Empty(t, parseAttendance(blank, rec))
	require.Empty(t, parseUnits(blank, rec))
	require.Empty(t, parseTopics(blank, rec))
	require.Empty(t, parseMaterialLinks(blank, newTestSession(t, rec), rec))
	require.Empty(t, parseAnnouncements(blank, newTestSession(t, rec), chrono.Portal, rec))
	require.Empty(t, parseSeatingInfo(blank, rec))

	result := parseResults(fixtureDoc(t, "results_empty.html"), rec)
	require.Equal(t, SemesterResult{Courses: []CourseResult{}}, result)

	require.Empty(t, rec.Reports("warning", ""))
}

func TestParseUnits(t *testing.T) {
	rec := telemetry.NewRecorder()
	units := parseUnits(fixtureDoc(t, "units.html"), rec)
	require.Equal(t, []Unit{
		{Title: "Unit 1: Introduction", ID: "40071"},
		{Title: "Unit 2: Trees", ID: "40072"},
	}, units)
	require.Len(t, rec.Reports("warning", "units."), 2)
}

func TestParseTopics(t *testing.T) {
	rec := telemetry.NewRecorder()
	topics := parseTopics(fixtureDoc(t, "topics.html"), rec)
	require.Equal(t, []Topic{
		{Title: "Introduction to Stacks", ID: "101", CourseID: "20975", UnitID: "40071"},
		{Title: "Queues", ID: "102", CourseID: "20975", UnitID: "40071"},
		{Title: "Untitled Topic", ID: "103", CourseID: "20975", UnitID: "40071"},
	}, topics)
	require.Len(t, rec.Reports("warning", "topics.onclick"), 1)
}

func TestParseMaterialLinks(t *testing.T) {
	rec := telemetry.NewRecorder()
	links := parseMaterialLinks(fixtureDoc(t, "materials.html"), newTestSession(t, rec), rec)
	require.Equal(t, []MaterialLink{
		{
			Title: "Lab Manual.docx",
			URL:   "https://www.pesuacademy.com/Academy/s/referenceMeterials/downloadcoursedoc/a1b2c3",
			IsPDF: false,
		},
		{
			Title: "Unit 1 Slides",
			URL:   "https://www.pesuacademy.com/Academy/a/referenceMeterials/downloadslidecoursedoc/9876",
			IsPDF: true,
		},
	}, links)
	require.Len(t, rec.Reports("warning", "material-links."), 2)
}

func TestParseAnnouncements(t *testing.T) {
	rec := telemetry.NewRecorder()
	announcements := parseAnnouncements(
		fixtureDoc(t, "announcements.html"),
		newTestSession(t, rec),
		chrono.Portal,
		rec,
	)

	expected := []Announcement{
		{
			Title:   "Mid Semester Examination Schedule",
			Date:    time.Date(2024, time.March, 5, 0, 0, 0, 0, chrono.Portal),
			Content: "The ISA schedule has been released.\nPlease check the portal.",
			Attachments: []string{
				"https://www.pesuacademy.com/Academy/s/studentProfilePESUAdmin/downloadAnoncemntdoc/5521",
				"https://www.pesuacademy.com/Academy/s/studentProfilePESUAdmin/downloadAnoncemntdoc/5522",
			},
		},
		{
			Title:   "No Title",
			Date:    time.Date(2024, time.April, 1, 0, 0, 0, 0, chrono.Portal),
			Content: "Campus closed.",
		},
	}
	if diff := cmp.Diff(expected, announcements); diff != "" {
		t.Fatal(diff)
	}
	require.Nil(t, announcements[1].Attachments)
	require.Len(t, rec.Reports("warning", "announcements.panel"), 2)
}

func TestAnnouncementContentExcludesAttachments(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{
			name:    "attachment div",
			content: `<p>Body.</p><div><a href="javascript:handleDownloadAnoncemntdoc('1')">file.pdf</a></div>`,
		},
		{
			name:    "bare attachment link",
			content: `<p>Body.</p><a href="javascript:handleDownloadAnoncemntdoc('1')">file.pdf</a>`,
		},
	}

	session := newTestSession(t, telemetry.NewRecorder())
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			doc, err := goquery.NewDocumentFromReader(strings.NewReader(
				`<div class="elem-info-wrapper"><span class="text-muted">05-March-2024</span>` +
					`<div class="col-md-12">` + c.content + `</div></div>`,
			))
			require.NoError(t, err)

			announcement, err := parseAnnouncement(doc.Find("div.elem-info-wrapper"), session, chrono.Portal)
			require.NoError(t, err)
			require.Equal(t, "Body.", announcement.Content)
			require.Equal(t, []string{
				"https://www.pesuacademy.com/Academy/s/studentProfilePESUAdmin/downloadAnoncemntdoc/1",
			}, announcement.Attachments)
		})
	}
}

func TestParseProfile(t *testing.T) {
	profile := parseProfile(fixtureDoc(t, "profile.html"))

	expected := Profile{
		Personal: PersonalDetails{
			Name:           "Arjun Sharma",
			PESUID:         "PES1202001234",
			SRN:            "PES1UG20CS001",
			Program:        "Bachelor of Technology",
			Branch:         "Computer Science and Engineering",
			Semester:       "Sem-5",
			Section:        "Section C",
			Email:          "arjun@example.com",
			Contact:        "9876543210",
			AadharNo:       "XXXX-XXXX-1234",
			NameAsInAadhar: "ARJUN SHARMA",
			Image:          "QUJDRA==",
		},
		OtherInfo: OtherInformation{
			SSLCMarks:  "95.2",
			PUCMarks:   "92.5",
			DOB:        "01-01-2002",
			BloodGroup: "N/A",
		},
		QualifyingExam: QualifyingExamination{
			Exam:  "PESSAT",
			Rank:  "1234",
			Score: "87",
		},
		Parents: Parents{
			Father: ParentDetails{
				Name:          "Rajesh Sharma",
				Mobile:        "9000000001",
				Email:         "rajesh@example.com",
				Occupation:    "Engineer",
				Qualification: "B.E.",
				Designation:   "Manager",
				Employer:      "ACME",
			},
			Mother: ParentDetails{
				Name:          "Priya Sharma",
				Mobile:        "9000000002",
				Email:         "priya@example.com",
				Occupation:    "Doctor",
				Qualification: "MBBS",
				Designation:   "N/A",
				Employer:      "City Hospital",
			},
		},
		Address: Address{
			Present:   "12, MG Road, Bengaluru",
			Permanent: "34, Main Street, Mysuru",
		},
	}
	if diff := cmp.Diff(expected, profile); diff != "" {
		t.Fatal(diff)
	}
}

func TestParseProfileMissingSections(t *testing.T) {
	profile := parseProfile(fixtureDoc(t, "home.html"))
	require.Equal(t, "N/A", profile.Personal.Name)
	require.Equal(t, "", profile.Personal.Image)
	require.Equal(t, "N/A", profile.OtherInfo.BloodGroup)
	require.Equal(t, "N/A", profile.Parents.Mother.Name)
	require.Equal(t, "N/A", profile.Address.Permanent)
}

func TestParseResults(t *testing.T) {
	rec := telemetry.NewRecorder()
	result := parseResults(fixtureDoc(t, "results.html"), rec)

	expected := SemesterResult{
		SGPA:    "8.75",
		Credits: &Credits{Earned: "21", Total: "24"},
		Courses: []CourseResult{
			{
				Code:    "UE20CS301",
				Title:   "Data Structures and its Applications",
				Credits: &Credits{Earned: "4", Total: "4"},
				Assessments: []Assessment{
					{Name: "ISA 1", Marks: "35", Total: "40"},
					{Name: "ESA", Marks: "78", Total: "100"},
					{Name: "Grade", Marks: "A"},
				},
			},
			{
				Code:        "UE20CS390A",
				Title:       "Capstone Project - Phase 1",
				Credits:     &Credits{Earned: "2", Total: "2"},
				Assessments: []Assessment{},
			},
		},
	}
	if diff := cmp.Diff(expected, result); diff != "" {
		t.Fatal(diff)
	}
	require.Len(t, rec.Reports("warning", "results.course"), 1)

	earned, total, ok := result.Credits.Values()
	require.True(t, ok)
	require.Equal(t, 21.0, earned)
	require.Equal(t, 24.0, total)

	_, _, ok = Credits{Earned: "A", Total: "4"}.Values()
	require.False(t, ok)
}

func TestParseSeatingInfo(t *testing.T) {
	rec := telemetry.NewRecorder()
	seating := parseSeatingInfo(fixtureDoc(t, "seating.html"), rec)
	require.Equal(t, []SeatingInformation{
		{
			Name:       "ISA 1",
			CourseCode: "UE20CS301",
			Date:       "12-03-2024",
			Time:       "09:00 AM",
			Terminal:   "T-12",
			Block:      "B Block",
		},
	}, seating)
	require.Len(t, rec.Reports("warning", "seating-info.columns"), 1)
}
