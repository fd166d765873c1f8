package pesu

import (
	"context"
	"slices"

	"pesuacademy/internal/components/telemetry"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"
)

// AllSemesters makes Courses and Attendance fetch every semester the
// account has.
const AllSemesters = 0

// Client is the entrypoint for scraping the portal, every fetch requires a
// successful Login first.
type Client struct {
	session *Session
	tel     telemetry.API
}

func NewClient(opts SessionOptions) (*Client, error) {
	session, err := NewSession(opts)
	if err != nil {
		return nil, err
	}
	return &Client{
		session: session,
		tel:     session.tel,
	}, nil
}

func (c *Client) Login(ctx context.Context, username, password string) error {
	return c.session.Login(ctx, username, password)
}

// Semesters returns the semester numbers of the logged in account in
// ascending order.
func (c *Client) Semesters() []int {
	semesters := c.session.SemesterIDs()
	numbers := make([]int, 0, len(semesters))
	for n := range semesters {
		numbers = append(numbers, n)
	}
	slices.Sort(numbers)
	return numbers
}

// Session returns the underlying session.
func (c *Client) Session() *Session {
	return c.session
}

// HTTP returns the authenticated http client so that other components can
// reuse its cookies (ex. to download materials).
func (c *Client) HTTP() *resty.Client {
	return c.session.HTTP()
}

func (c *Client) Close() error {
	return c.session.Close()
}

func (c *Client) Profile(ctx context.Context) (Profile, error) {
	ctx, span := tracer.Start(ctx, "Profile")
	defer span.End()

	profile, err := c.session.profile(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch profile")
	}
	return profile, err
}

func (c *Client) SeatingInfo(ctx context.Context) ([]SeatingInformation, error) {
	ctx, span := tracer.Start(ctx, "SeatingInfo")
	defer span.End()

	seating, err := c.session.seatingInfo(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch seating info")
	}
	return seating, err
}

func (c *Client) Announcements(ctx context.Context) ([]Announcement, error) {
	ctx, span := tracer.Start(ctx, "Announcements")
	defer span.End()

	announcements, err := c.session.announcements(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch announcements")
	}
	return announcements, err
}

// resolveSemesters returns the semester ids to fetch for the given semester
// number, or every semester for AllSemesters.
func (c *Client) resolveSemesters(semester int) (map[int]string, error) {
	semesters := c.session.SemesterIDs()
	if semester == AllSemesters {
		return semesters, nil
	}
	id, ok := semesters[semester]
	if !ok {
		return nil, &InvalidSemesterError{Semester: semester, Available: c.Semesters()}
	}
	return map[int]string{semester: id}, nil
}

// fanOut fetches every requested semester concurrently, results are keyed by
// semester number so completion order doesn't matter.
func fanOut[T any](
	ctx context.Context,
	c *Client,
	semester int,
	fetch func(ctx context.Context, semesterId string) (T, error),
) (map[int]T, error) {
	err := c.session.ensureAuthenticated()
	if err != nil {
		return nil, err
	}
	targets, err := c.resolveSemesters(semester)
	if err != nil {
		return nil, err
	}

	numbers := make([]int, 0, len(targets))
	for n := range targets {
		numbers = append(numbers, n)
	}
	slices.Sort(numbers)

	values := make([]T, len(numbers))
	group, groupCtx := errgroup.WithContext(ctx)
	for i, n := range numbers {
		group.Go(func() error {
			value, err := fetch(groupCtx, targets[n])
			if err != nil {
				return err
			}
			values[i] = value
			return nil
		})
	}
	err = group.Wait()
	if err != nil {
		return nil, err
	}

	out := make(map[int]T, len(numbers))
	for i, n := range numbers {
		out[n] = values[i]
	}
	return out, nil
}

// Courses returns the courses of a semester keyed by semester number, pass
// AllSemesters to get every semester.
func (c *Client) Courses(ctx context.Context, semester int) (map[int][]Course, error) {
	ctx, span := tracer.Start(ctx, "Courses")
	defer span.End()
	span.SetAttributes(attribute.Int("semester", semester))

	courses, err := fanOut(ctx, c, semester, c.session.courses)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch courses")
	}
	return courses, err
}

// Attendance returns the attendance of a semester keyed by semester number,
// pass AllSemesters to get every semester.
func (c *Client) Attendance(ctx context.Context, semester int) (map[int][]Course, error) {
	ctx, span := tracer.Start(ctx, "Attendance")
	defer span.End()
	span.SetAttributes(attribute.Int("semester", semester))

	attendance, err := fanOut(ctx, c, semester, c.session.attendance)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch attendance")
	}
	return attendance, err
}

// Results fails with an *InvalidSemesterError before making any request if
// the account doesn't have the semester.
func (c *Client) Results(ctx context.Context, semester int) (SemesterResult, error) {
	ctx, span := tracer.Start(ctx, "Results")
	defer span.End()
	span.SetAttributes(attribute.Int("semester", semester))

	err := c.session.ensureAuthenticated()
	if err != nil {
		return SemesterResult{}, err
	}
	id, ok := c.session.semesterID(semester)
	if !ok {
		err := &InvalidSemesterError{Semester: semester, Available: c.Semesters()}
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid semester")
		return SemesterResult{}, err
	}

	result, err := c.session.results(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch results")
	}
	return result, err
}

func (c *Client) Units(ctx context.Context, courseId string) ([]Unit, error) {
	ctx, span := tracer.Start(ctx, "Units")
	defer span.End()
	span.SetAttributes(attribute.String("course_id", courseId))

	units, err := c.session.units(ctx, courseId)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch units")
	}
	return units, err
}

func (c *Client) Topics(ctx context.Context, unitId string) ([]Topic, error) {
	ctx, span := tracer.Start(ctx, "Topics")
	defer span.End()
	span.SetAttributes(attribute.String("unit_id", unitId))

	topics, err := c.session.topics(ctx, unitId)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch topics")
	}
	return topics, err
}

// MaterialLinks lists the materials of a topic, `materialTypeId` is usually
// MaterialSlides or MaterialNotes.
func (c *Client) MaterialLinks(ctx context.Context, topic Topic, materialTypeId string) ([]MaterialLink, error) {
	ctx, span := tracer.Start(ctx, "MaterialLinks")
	defer span.End()
	span.SetAttributes(
		attribute.String("topic_id", topic.ID),
		attribute.String("material_type", materialTypeId),
	)

	links, err := c.session.materialLinks(ctx, topic, materialTypeId)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch material links")
	}
	return links, err
}
