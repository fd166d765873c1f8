package pesu

import (
	"bytes"
	"context"
	"fmt"
	"maps"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"pesuacademy/internal/assert"
	"pesuacademy/internal/components/chrono"
	"pesuacademy/internal/components/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/time/rate"
)

var tracer = otel.Tracer("pesuacademy/internal/scrapers/pesu")

const (
	report_session_login     = "session.login"
	report_session_csrf      = "session.get-csrf"
	report_session_semesters = "session.get-semesters"
	report_session_fetch     = "session.fetch-page"
)

const (
	DefaultBaseURL   = "https://www.pesuacademy.com/Academy"
	DefaultTimeout   = time.Second * 30
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"
)

type SessionOptions struct {
	// BaseURL is the root of the portal application, it defaults to DefaultBaseURL.
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
	// RateLimit is the maximum number of requests made per second, 0 means unlimited.
	RateLimit float64
	// CloudflareBypass wraps the transport so that requests carry browser-like headers.
	CloudflareBypass bool
	// InstrumentOutput receives a dump of every http message when it is not nil.
	InstrumentOutput telemetry.InstrumentOutput
	Telemetry        telemetry.API
	Clock            chrono.API
}

type sessionState int

const (
	stateAnonymous sessionState = iota
	stateAwaitingCsrf
	stateAuthenticated
	stateInvalid
	stateClosed
)

func (s sessionState) String() string {
	switch s {
	case stateAnonymous:
		return "anonymous"
	case stateAwaitingCsrf:
		return "awaiting-csrf"
	case stateAuthenticated:
		return "authenticated"
	case stateInvalid:
		return "invalid"
	case stateClosed:
		return "closed"
	}
	return "unknown"
}

// Session owns the authenticated http client and everything learned while
// logging in. It is safe for concurrent use once Login has returned.
type Session struct {
	baseUrl *url.URL
	http    *resty.Client
	tel     telemetry.API
	clock   chrono.API

	mutex     sync.RWMutex
	state     sessionState
	csrf      string
	semesters map[int]string

	closeOnce sync.Once
}

func NewSession(opts SessionOptions) (*Session, error) {
	assert.NotNil(opts.Telemetry)

	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Timeout == 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.Clock == nil {
		opts.Clock = chrono.NewStandardImpl()
	}

	tel := telemetry.NewScopedAPI("pesu_scraper", opts.Telemetry)

	baseUrl, err := url.Parse(strings.TrimSuffix(opts.BaseURL, "/"))
	if err != nil {
		return nil, err
	}
	if baseUrl.Scheme == "" || baseUrl.Host == "" {
		return nil, fmt.Errorf("base url must be absolute: %s", opts.BaseURL)
	}

	httpClient := resty.New()
	httpClient.SetBaseURL(baseUrl.String())
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	httpClient.SetCookieJar(jar)
	if opts.CloudflareBypass {
		httpClient.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(httpClient.GetClient().Transport)
	}

	httpClient.SetHeader("user-agent", opts.UserAgent)
	httpClient.SetRedirectPolicy(resty.DomainCheckRedirectPolicy(baseUrl.Hostname()))
	httpClient.SetTimeout(opts.Timeout)

	if opts.RateLimit > 0 {
		// max burst >= 1 just means that no requests will be dropped
		burst := max(int(opts.RateLimit), 1)
		rateLimiter := rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
		httpClient.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
			return rateLimiter.Wait(req.Context())
		})
	}

	telemetry.InstrumentResty(httpClient, tel, opts.InstrumentOutput)

	return &Session{
		baseUrl:   baseUrl,
		http:      httpClient,
		tel:       tel,
		clock:     opts.Clock,
		state:     stateAnonymous,
		semesters: map[int]string{},
	}, nil
}

// absolute resolves a path against the origin of the portal (scheme and host).
func (s *Session) absolute(path string) string {
	origin := url.URL{Scheme: s.baseUrl.Scheme, Host: s.baseUrl.Host}
	return origin.String() + path
}

// appUrl resolves a path against the base url of the portal application.
func (s *Session) appUrl(path string) string {
	return s.baseUrl.String() + path
}

func (s *Session) setState(state sessionState) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.state == stateClosed {
		return
	}
	s.state = state
}

func (s *Session) currentState() sessionState {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.state
}

func (s *Session) ensureAuthenticated() error {
	switch s.currentState() {
	case stateAuthenticated:
		return nil
	case stateClosed:
		return ErrSessionClosed
	default:
		return ErrNotAuthenticated
	}
}

// CSRFToken returns the token issued after login, it is empty before that.
func (s *Session) CSRFToken() string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.csrf
}

// SemesterIDs returns a copy of the semester number to semester id mapping.
func (s *Session) SemesterIDs() map[int]string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return maps.Clone(s.semesters)
}

func (s *Session) semesterID(semester int) (string, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	id, ok := s.semesters[semester]
	return id, ok
}

// HTTP exposes the underlying client, it carries the session cookies after login.
func (s *Session) HTTP() *resty.Client {
	return s.http
}

func (s *Session) get(ctx context.Context, path string, params map[string]string) (*resty.Response, error) {
	res, err := s.http.R().
		SetContext(ctx).
		SetQueryParams(params).
		Get(path)
	if err != nil {
		return nil, err
	}
	if res.IsError() {
		return nil, newHttpError(res)
	}
	return res, nil
}

func newHttpError(res *resty.Response) *HTTPError {
	requestUrl := res.Request.URL
	if res.Request.RawRequest != nil {
		requestUrl = res.Request.RawRequest.URL.String()
	}
	return &HTTPError{
		Method:     res.Request.Method,
		URL:        requestUrl,
		StatusCode: res.StatusCode(),
		Status:     res.Status(),
	}
}

func parseDocument(body []byte) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(bytes.NewBuffer(body))
}

func csrfToken(doc *goquery.Document) (string, bool) {
	token, exists := doc.Find("meta[name=csrf-token]").First().Attr("content")
	if !exists || strings.TrimSpace(token) == "" {
		return "", false
	}
	return strings.TrimSpace(token), true
}

// Login performs the login handshake and fetches the semester list. The
// session only becomes usable once every step has succeeded.
func (s *Session) Login(ctx context.Context, username, password string) error {
	ctx, span := tracer.Start(ctx, "Login")
	defer span.End()
	span.SetAttributes(attribute.String("username", username))

	if s.currentState() == stateClosed {
		return ErrSessionClosed
	}

	loginError := func(err error) error {
		span.RecordError(err)
		span.SetStatus(codes.Error, "login failed")
		return fmt.Errorf("pesu scraper: login failed: %w", err)
	}

	if username == "" || password == "" {
		s.setState(stateInvalid)
		return loginError(fmt.Errorf("empty username or password: %w", ErrAuthentication))
	}

	// the token and semester map are only replaced once login succeeds
	s.setState(stateAwaitingCsrf)

	res, err := s.get(ctx, "/", nil)
	if err != nil {
		s.tel.ReportBroken(report_session_csrf, fmt.Errorf("fetch: %w", err))
		s.setState(stateAnonymous)
		return loginError(err)
	}
	doc, err := parseDocument(res.Body())
	if err != nil {
		s.tel.ReportBroken(report_session_csrf, fmt.Errorf("parse: %w", err))
		s.setState(stateAnonymous)
		return loginError(err)
	}
	initialCsrf, ok := csrfToken(doc)
	if !ok {
		s.tel.ReportBroken(report_session_csrf, fmt.Errorf("landing page: %w", ErrCsrfToken))
		s.setState(stateAnonymous)
		return loginError(ErrCsrfToken)
	}

	res, err = s.http.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"_csrf":      initialCsrf,
			"j_username": username,
			"j_password": password,
		}).
		Post("/j_spring_security_check")
	if err != nil {
		s.tel.ReportBroken(report_session_login, fmt.Errorf("login request: %w", err))
		s.setState(stateAnonymous)
		return loginError(err)
	}
	if res.IsError() {
		s.setState(stateAnonymous)
		return loginError(newHttpError(res))
	}

	if strings.Contains(res.String(), "Invalid credentials") {
		s.setState(stateInvalid)
		s.tel.ReportDebug("login rejected", username)
		return loginError(ErrAuthentication)
	}

	doc, err = parseDocument(res.Body())
	if err != nil {
		s.tel.ReportBroken(report_session_login, fmt.Errorf("parse: %w", err))
		s.setState(stateAnonymous)
		return loginError(err)
	}
	finalCsrf, ok := csrfToken(doc)
	if !ok {
		s.tel.ReportBroken(report_session_csrf, fmt.Errorf("post-login page: %w", ErrCsrfToken))
		s.setState(stateAnonymous)
		return loginError(ErrCsrfToken)
	}

	semesters, err := s.fetchSemesters(ctx)
	if err != nil {
		s.setState(stateAnonymous)
		return loginError(err)
	}

	s.mutex.Lock()
	if s.state == stateClosed {
		s.mutex.Unlock()
		return ErrSessionClosed
	}
	s.csrf = finalCsrf
	s.semesters = semesters
	s.state = stateAuthenticated
	s.mutex.Unlock()

	span.SetAttributes(attribute.Int("semesters", len(semesters)))
	s.tel.ReportCount("session.semesters", int64(len(semesters)))
	return nil
}

func (s *Session) fetchSemesters(ctx context.Context) (map[int]string, error) {
	res, err := s.get(ctx, semestersPath, map[string]string{
		"_": cacheBuster(s.clock),
	})
	if err != nil {
		s.tel.ReportBroken(report_session_semesters, fmt.Errorf("fetch: %w", err))
		return nil, err
	}
	doc, err := parseDocument(res.Body())
	if err != nil {
		s.tel.ReportBroken(report_session_semesters, fmt.Errorf("parse: %w", err))
		return nil, err
	}
	return parseSemesters(doc, s.tel)
}

// fetchPage requests a page of the portal and parses it, it requires the
// session to be authenticated.
func (s *Session) fetchPage(ctx context.Context, reportId string, page PageParams, extras map[string]string) (*goquery.Document, error) {
	err := s.ensureAuthenticated()
	if err != nil {
		return nil, err
	}

	params := BuildParams(s.clock, page, extras)
	res, err := s.get(ctx, pagePath, params)
	if err != nil {
		s.tel.ReportBroken(
			reportId,
			fmt.Errorf("fetch: %w", err),
			page,
		)
		return nil, err
	}
	doc, err := parseDocument(res.Body())
	if err != nil {
		s.tel.ReportBroken(
			report_session_fetch,
			fmt.Errorf("parse: %w", err),
			page,
		)
		return nil, err
	}
	return doc, nil
}

// Close releases idle connections, the session cannot be used afterwards.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.mutex.Lock()
		s.state = stateClosed
		s.csrf = ""
		s.semesters = map[int]string{}
		s.mutex.Unlock()

		s.http.GetClient().CloseIdleConnections()
	})
	return nil
}
