package pesu

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"pesuacademy/internal/components/chrono"
	"pesuacademy/internal/components/telemetry"

	"github.com/stretchr/testify/require"
)

const (
	testUsername = "PES1UG20CS001"
	testPassword = "secret"
	downloadBody = "lab manual contents"
)

// fakePortal serves the fixtures the way the portal would, enforcing the
// cookie and csrf checks of the real login flow.
type fakePortal struct {
	t        *testing.T
	server   *httptest.Server
	requests atomic.Int64

	landing   string
	failPages atomic.Bool
}

func newFakePortal(t *testing.T, opts ...func(p *fakePortal)) *fakePortal {
	p := &fakePortal{t: t, landing: "landing.html"}
	for _, opt := range opts {
		opt(p)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /Academy/{$}", p.handleLanding)
	mux.HandleFunc("POST /Academy/j_spring_security_check", p.handleLogin)
	mux.HandleFunc("GET /Academy/home", p.authenticated(func(w http.ResponseWriter, r *http.Request) {
		p.write(w, "home.html")
	}))
	mux.HandleFunc("GET /Academy"+semestersPath, p.authenticated(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("_") == "" {
			http.Error(w, "missing cache buster", http.StatusBadRequest)
			return
		}
		p.write(w, "semesters.html")
	}))
	mux.HandleFunc("GET /Academy"+pagePath, p.authenticated(p.handlePage))
	mux.HandleFunc("GET /Academy/s/referenceMeterials/downloadcoursedoc/{id}", p.authenticated(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.docx"`, r.PathValue("id")))
		w.Header().Set("Content-Length", strconv.Itoa(len(downloadBody)))
		w.Write([]byte(downloadBody))
	}))

	p.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p.requests.Add(1)
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(p.server.Close)
	return p
}

func (p *fakePortal) baseURL() string {
	return p.server.URL + "/Academy"
}

func (p *fakePortal) write(w http.ResponseWriter, name string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(fixture(p.t, name))
}

func (p *fakePortal) authenticated(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie("JSESSIONID")
		if err != nil || cookie.Value != "authenticated" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

func (p *fakePortal) handleLanding(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{Name: "JSESSIONID", Value: "anonymous", Path: "/Academy"})
	p.write(w, p.landing)
}

func (p *fakePortal) handleLogin(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie("JSESSIONID")
	if err != nil || cookie.Value != "anonymous" {
		http.Error(w, "no session", http.StatusForbidden)
		return
	}
	err = r.ParseForm()
	if err != nil || r.PostForm.Get("_csrf") != "landing-token" {
		http.Error(w, "bad csrf", http.StatusForbidden)
		return
	}
	if r.PostForm.Get("j_username") != testUsername || r.PostForm.Get("j_password") != testPassword {
		p.write(w, "login_invalid.html")
		return
	}
	http.SetCookie(w, &http.Cookie{Name: "JSESSIONID", Value: "authenticated", Path: "/Academy"})
	http.Redirect(w, r, "/Academy/home", http.StatusFound)
}

func (p *fakePortal) handlePage(w http.ResponseWriter, r *http.Request) {
	if p.failPages.Load() {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	query := r.URL.Query()
	if query.Get("_") == "" {
		http.Error(w, "missing cache buster", http.StatusBadRequest)
		return
	}
	page := PageParams{
		MenuID:         query.Get("menuId"),
		ControllerMode: query.Get("controllerMode"),
		ActionType:     query.Get("actionType"),
	}

	switch page {
	case CoursesPage:
		switch query.Get("id") {
		case "2763":
			p.write(w, "courses.html")
		case "2764":
			p.write(w, "courses_sem2.html")
		default:
			p.write(w, "courses_empty.html")
		}
	case AttendancePage:
		p.write(w, "attendance_empty.html")
	case ResultsPage:
		p.write(w, "results.html")
	case CourseDetailPage:
		p.write(w, "units.html")
	case UnitDetailPage:
		p.write(w, "topics.html")
	case MaterialLinksPage:
		p.write(w, "materials.html")
	case ProfilePage:
		p.write(w, "profile.html")
	case SeatingInfoPage:
		p.write(w, "seating.html")
	case AnnouncementsPage:
		p.write(w, "announcements.html")
	default:
		http.NotFound(w, r)
	}
}

func newPortalClient(t *testing.T, portal *fakePortal, tel telemetry.API) *Client {
	t.Helper()
	client, err := NewClient(SessionOptions{
		BaseURL:   portal.baseURL(),
		Timeout:   5 * time.Second,
		Telemetry: tel,
		Clock:     chrono.NewFixedImpl(time.Date(2024, time.March, 5, 10, 0, 0, 0, time.UTC)),
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		client.Close()
	})
	return client
}

func loggedInClient(t *testing.T, portal *fakePortal) *Client {
	t.Helper()
	client := newPortalClient(t, portal, telemetry.NewRecorder())
	require.NoError(t, client.Login(context.Background(), testUsername, testPassword))
	return client
}

func TestLogin(t *testing.T) {
	portal := newFakePortal(t)
	rec := telemetry.NewRecorder()
	client := newPortalClient(t, portal, rec)

	err := client.Login(context.Background(), testUsername, testPassword)
	require.NoError(t, err)

	require.Equal(t, "session-token", client.Session().CSRFToken())
	require.Equal(t, map[int]string{1: "2763", 2: "2764", 3: "2765"}, client.Session().SemesterIDs())
	require.Equal(t, []int{1, 2, 3}, client.Semesters())
	require.Empty(t, rec.Reports("broken", ""))
	require.Len(t, rec.Reports("count", "session.semesters"), 1)
}

func TestLoginInvalidCredentials(t *testing.T) {
	portal := newFakePortal(t)
	client := newPortalClient(t, portal, telemetry.NewRecorder())
	ctx := context.Background()

	err := client.Login(ctx, testUsername, "wrong")
	require.ErrorIs(t, err, ErrAuthentication)
	require.Empty(t, client.Session().SemesterIDs())
	require.Empty(t, client.Session().CSRFToken())

	_, err = client.Courses(ctx, AllSemesters)
	require.ErrorIs(t, err, ErrNotAuthenticated)

	// a later login with the right password recovers the session
	require.NoError(t, client.Login(ctx, testUsername, testPassword))
	_, err = client.Courses(ctx, 1)
	require.NoError(t, err)
}

func TestReloginInvalidCredentialsKeepsSemesters(t *testing.T) {
	portal := newFakePortal(t)
	client := loggedInClient(t, portal)
	ctx := context.Background()

	semesters := client.Session().SemesterIDs()
	require.NotEmpty(t, semesters)

	err := client.Login(ctx, testUsername, "wrong")
	require.ErrorIs(t, err, ErrAuthentication)
	require.Equal(t, semesters, client.Session().SemesterIDs())

	_, err = client.Courses(ctx, AllSemesters)
	require.ErrorIs(t, err, ErrNotAuthenticated)
}

func TestLoginEmptyCredentials(t *testing.T) {
	portal := newFakePortal(t)
	client := newPortalClient(t, portal, telemetry.NewRecorder())

	err := client.Login(context.Background(), "", testPassword)
	require.ErrorIs(t, err, ErrAuthentication)
	err = client.Login(context.Background(), testUsername, "")
	require.ErrorIs(t, err, ErrAuthentication)
	require.Zero(t, portal.requests.Load())
}

func TestLoginMissingCsrf(t *testing.T) {
	portal := newFakePortal(t, func(p *fakePortal) {
		p.landing = "landing_no_csrf.html"
	})
	rec := telemetry.NewRecorder()
	client := newPortalClient(t, portal, rec)

	err := client.Login(context.Background(), testUsername, testPassword)
	require.ErrorIs(t, err, ErrCsrfToken)
	require.Len(t, rec.Reports("broken", report_session_csrf), 1)
	require.EqualValues(t, 1, portal.requests.Load())
}

func TestFetchBeforeLogin(t *testing.T) {
	portal := newFakePortal(t)
	client := newPortalClient(t, portal, telemetry.NewRecorder())
	ctx := context.Background()

	_, err := client.Profile(ctx)
	require.ErrorIs(t, err, ErrNotAuthenticated)
	_, err = client.Results(ctx, 1)
	require.ErrorIs(t, err, ErrNotAuthenticated)
	_, err = client.Units(ctx, "20975")
	require.ErrorIs(t, err, ErrNotAuthenticated)
	_, err = client.Download(ctx, MaterialLink{URL: portal.baseURL() + "/s/referenceMeterials/downloadcoursedoc/a1"}, &bytes.Buffer{}, nil)
	require.ErrorIs(t, err, ErrNotAuthenticated)
	require.Zero(t, portal.requests.Load())
}

func TestClosedSession(t *testing.T) {
	portal := newFakePortal(t)
	client := loggedInClient(t, portal)
	ctx := context.Background()

	require.NoError(t, client.Close())
	require.NoError(t, client.Close())

	_, err := client.Courses(ctx, AllSemesters)
	require.ErrorIs(t, err, ErrSessionClosed)
	_, err = client.SeatingInfo(ctx)
	require.ErrorIs(t, err, ErrSessionClosed)
	err = client.Login(ctx, testUsername, testPassword)
	require.ErrorIs(t, err, ErrSessionClosed)
	require.Empty(t, client.Session().SemesterIDs())
}

func TestCoursesAllSemesters(t *testing.T) {
	portal := newFakePortal(t)
	client := loggedInClient(t, portal)
	ctx := context.Background()

	courses, err := client.Courses(ctx, AllSemesters)
	require.NoError(t, err)
	require.Len(t, courses, 3)
	require.Len(t, courses[1], 3)
	require.Equal(t, []Course{{
		Code:   "UE19CS201",
		Title:  "Digital Design and Computer Organization",
		Type:   "Core Course",
		Status: "Completed",
		ID:     "10501",
	}}, courses[2])
	require.NotNil(t, courses[3])
	require.Empty(t, courses[3])

	again, err := client.Courses(ctx, AllSemesters)
	require.NoError(t, err)
	require.Equal(t, courses, again)

	single, err := client.Courses(ctx, 2)
	require.NoError(t, err)
	require.Equal(t, map[int][]Course{2: courses[2]}, single)
}

func TestAttendanceNotAvailable(t *testing.T) {
	portal := newFakePortal(t)
	client := loggedInClient(t, portal)

	attendance, err := client.Attendance(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, map[int][]Course{1: {}}, attendance)
}

func TestInvalidSemester(t *testing.T) {
	portal := newFakePortal(t)
	client := loggedInClient(t, portal)
	ctx := context.Background()
	before := portal.requests.Load()

	_, err := client.Results(ctx, 99)
	require.ErrorIs(t, err, ErrInvalidSemester)
	var invalid *InvalidSemesterError
	require.True(t, errors.As(err, &invalid))
	require.Equal(t, 99, invalid.Semester)
	require.Equal(t, []int{1, 2, 3}, invalid.Available)
	require.Equal(t, "semester 99 not found, available semesters: [1, 2, 3]", err.Error())

	_, err = client.Courses(ctx, 7)
	require.ErrorIs(t, err, ErrInvalidSemester)
	_, err = client.Attendance(ctx, 7)
	require.ErrorIs(t, err, ErrInvalidSemester)

	require.Equal(t, before, portal.requests.Load())
}

func TestResults(t *testing.T) {
	portal := newFakePortal(t)
	client := loggedInClient(t, portal)

	result, err := client.Results(context.Background(), 3)
	require.NoError(t, err)
	require.Equal(t, "8.75", result.SGPA)
	require.Len(t, result.Courses, 2)
}

func TestHTTPError(t *testing.T) {
	portal := newFakePortal(t)
	rec := telemetry.NewRecorder()
	client := newPortalClient(t, portal, rec)
	require.NoError(t, client.Login(context.Background(), testUsername, testPassword))
	portal.failPages.Store(true)

	_, err := client.Courses(context.Background(), AllSemesters)
	var httpErr *HTTPError
	require.True(t, errors.As(err, &httpErr))
	require.Equal(t, http.StatusInternalServerError, httpErr.StatusCode)
	require.Equal(t, http.MethodGet, httpErr.Method)
	require.NotEmpty(t, rec.Reports("broken", report_client_get_courses))

	_, err = client.Profile(context.Background())
	require.True(t, errors.As(err, &httpErr))
}

func TestSingletonPages(t *testing.T) {
	portal := newFakePortal(t)
	client := loggedInClient(t, portal)
	ctx := context.Background()

	profile, err := client.Profile(ctx)
	require.NoError(t, err)
	require.Equal(t, "PES1UG20CS001", profile.Personal.SRN)

	seating, err := client.SeatingInfo(ctx)
	require.NoError(t, err)
	require.Len(t, seating, 1)

	announcements, err := client.Announcements(ctx)
	require.NoError(t, err)
	require.Len(t, announcements, 2)
	require.Equal(t,
		portal.baseURL()+"/s/studentProfilePESUAdmin/downloadAnoncemntdoc/5521",
		announcements[0].Attachments[0],
	)
}

func TestMaterialsAndDownload(t *testing.T) {
	portal := newFakePortal(t)
	client := loggedInClient(t, portal)
	ctx := context.Background()

	courses, err := client.Courses(ctx, 1)
	require.NoError(t, err)
	course, ok := FindCourse(courses[1], "data structures")
	require.True(t, ok)

	units, err := client.Units(ctx, course.ID)
	require.NoError(t, err)
	require.Len(t, units, 2)

	topics, err := client.Topics(ctx, units[0].ID)
	require.NoError(t, err)
	require.Len(t, topics, 3)

	links, err := client.MaterialLinks(ctx, topics[0], MaterialSlides)
	require.NoError(t, err)
	require.Len(t, links, 2)
	require.Equal(t, portal.baseURL()+"/s/referenceMeterials/downloadcoursedoc/a1b2c3", links[0].URL)
	require.Equal(t, portal.server.URL+"/Academy/a/referenceMeterials/downloadslidecoursedoc/9876", links[1].URL)

	var (
		buf      bytes.Buffer
		progress []int64
		total    int64
	)
	result, err := client.Download(ctx, links[0], &buf, func(written, size int64) {
		progress = append(progress, written)
		total = size
	})
	require.NoError(t, err)
	require.Equal(t, downloadBody, buf.String())
	require.EqualValues(t, len(downloadBody), result.Written)
	require.Equal(t, "a1b2c3.docx", result.Filename)
	require.NotEmpty(t, progress)
	require.EqualValues(t, len(downloadBody), progress[len(progress)-1])
	require.EqualValues(t, len(downloadBody), total)

	// the slide link isn't served by the fake portal
	_, err = client.Download(ctx, links[1], &bytes.Buffer{}, nil)
	var httpErr *HTTPError
	require.True(t, errors.As(err, &httpErr))
	require.Equal(t, http.StatusNotFound, httpErr.StatusCode)
}

func TestSuggestedFilename(t *testing.T) {
	require.Equal(t, "Unit 1 Slides.pdf", SuggestedFilename(MaterialLink{Title: "Unit 1 Slides", IsPDF: true}))
	require.Equal(t, "notes.PDF", SuggestedFilename(MaterialLink{Title: "notes.PDF", IsPDF: true}))
	require.Equal(t, "Lab Manual.docx", SuggestedFilename(MaterialLink{Title: "Lab Manual.docx"}))
	require.Equal(t, "a_b", SuggestedFilename(MaterialLink{Title: "a/b"}))
	require.Equal(t, "untitled", SuggestedFilename(MaterialLink{Title: "///"}))
}
