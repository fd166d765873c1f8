package snapshot

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"pesuacademy/internal/assert"
	"pesuacademy/internal/components/chrono"
	"pesuacademy/internal/components/telemetry"
	"pesuacademy/internal/db"
	"pesuacademy/internal/scrapers/pesu"

	"github.com/mazen160/go-random"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("pesuacademy/internal/snapshot")

const (
	report_db_query          = "db.query"
	report_record_attendance = "snapshot.record-attendance"
)

// Store writes attendance snapshots to a database so they can be exported
// and compared over time, nothing in it is ever read back by the scraper.
type Store struct {
	qry    *db.Queries
	makeTx db.MakeTx
	clock  chrono.API
	tel    telemetry.API
}

func NewStore(database *sql.DB, clock chrono.API, tel telemetry.API) Store {
	assert.NotNil(database)
	assert.NotNil(clock)
	assert.NotNil(tel)

	return Store{
		qry:    db.New(database),
		makeTx: db.NewMakeTx(database),
		clock:  clock,
		tel:    telemetry.NewScopedAPI("snapshot", tel),
	}
}

func nullInt(value *int) sql.NullInt64 {
	if value == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*value), Valid: true}
}

func nullFloat(value *float64) sql.NullFloat64 {
	if value == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *value, Valid: true}
}

func fromNullInt(value sql.NullInt64) *int {
	if !value.Valid {
		return nil
	}
	v := int(value.Int64)
	return &v
}

func fromNullFloat(value sql.NullFloat64) *float64 {
	if !value.Valid {
		return nil
	}
	v := value.Float64
	return &v
}

// RecordAttendance stores the attendance of a semester as a new run and
// returns its id. Runs made earlier on the same (portal) day for the same
// user and semester are replaced.
func (s Store) RecordAttendance(ctx context.Context, user string, semester int, courses []pesu.Course) (string, error) {
	ctx, span := tracer.Start(ctx, "RecordAttendance")
	defer span.End()
	span.SetAttributes(
		attribute.Int("semester", semester),
		attribute.Int("courses", len(courses)),
	)

	fail := func(err error) (string, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to record attendance")
		return "", err
	}

	now := s.clock.Now().In(chrono.Portal)
	startOfToday := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, chrono.Portal)
	startOfTomorrow := startOfToday.AddDate(0, 0, 1)

	runId, err := random.String(8)
	if err != nil {
		s.tel.ReportBroken(report_record_attendance, fmt.Errorf("run id: %w", err))
		return fail(err)
	}

	tx, discard, commit, err := s.makeTx(ctx)
	if err != nil {
		s.tel.ReportBroken(report_db_query, fmt.Errorf("make tx: %w", err))
		return fail(err)
	}
	defer discard()

	deleteSnapshots := db.DeleteAttendanceSnapshotsInParams{
		User:     user,
		Semester: int64(semester),
		After:    startOfToday.Unix(),
		Before:   startOfTomorrow.Unix(),
	}
	err = tx.DeleteAttendanceSnapshotsIn(ctx, deleteSnapshots)
	if err != nil {
		s.tel.ReportBroken(report_db_query, err, "DeleteAttendanceSnapshotsIn", deleteSnapshots)
		return fail(err)
	}
	deleteRuns := db.DeleteRunsInParams(deleteSnapshots)
	err = tx.DeleteRunsIn(ctx, deleteRuns)
	if err != nil {
		s.tel.ReportBroken(report_db_query, err, "DeleteRunsIn", deleteRuns)
		return fail(err)
	}

	run := db.CreateRunParams{
		ID:       runId,
		User:     user,
		Semester: int64(semester),
		Time:     now.Unix(),
	}
	err = tx.CreateRun(ctx, run)
	if err != nil {
		s.tel.ReportBroken(report_db_query, err, "CreateRun", run)
		return fail(err)
	}

	for _, course := range courses {
		if course.Code == "" {
			s.tel.ReportWarning(report_record_attendance, "course without code", course.Title)
			continue
		}
		param := db.CreateAttendanceSnapshotParams{
			RunID:       runId,
			CourseCode:  course.Code,
			CourseTitle: course.Title,
		}
		if course.Attendance != nil {
			param.Attended = nullInt(course.Attendance.Attended)
			param.Total = nullInt(course.Attendance.Total)
			param.Percentage = nullFloat(course.Attendance.Percentage)
		}
		err = tx.CreateAttendanceSnapshot(ctx, param)
		if err != nil {
			s.tel.ReportBroken(report_db_query, err, "CreateAttendanceSnapshot", param)
			return fail(err)
		}
	}

	err = commit()
	if err != nil {
		s.tel.ReportBroken(report_db_query, fmt.Errorf("commit: %w", err))
		return fail(err)
	}
	s.tel.ReportDebug("recorded attendance", runId, user, semester, len(courses))
	return runId, nil
}

// Run is a stored attendance snapshot of one semester.
type Run struct {
	ID       string
	Semester int
	Time     time.Time
	Courses  []pesu.Course
}

// LatestAttendance returns the most recent run of a semester, ok is false if
// none was recorded yet.
func (s Store) LatestAttendance(ctx context.Context, user string, semester int) (run Run, ok bool, err error) {
	param := db.GetLatestRunParams{
		User:     user,
		Semester: int64(semester),
	}
	latest, err := s.qry.GetLatestRun(ctx, param)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, false, nil
	}
	if err != nil {
		s.tel.ReportBroken(report_db_query, err, "GetLatestRun", param)
		return Run{}, false, err
	}

	rows, err := s.qry.GetRunAttendance(ctx, latest.ID)
	if err != nil {
		s.tel.ReportBroken(report_db_query, err, "GetRunAttendance", latest.ID)
		return Run{}, false, err
	}

	courses := make([]pesu.Course, len(rows))
	for i, r := range rows {
		courses[i] = pesu.Course{
			Code:  r.CourseCode,
			Title: r.CourseTitle,
			Attendance: &pesu.Attendance{
				Attended:   fromNullInt(r.Attended),
				Total:      fromNullInt(r.Total),
				Percentage: fromNullFloat(r.Percentage),
			},
		}
	}
	return Run{
		ID:       latest.ID,
		Semester: int(latest.Semester),
		Time:     time.Unix(latest.Time, 0).In(chrono.Portal),
		Courses:  courses,
	}, true, nil
}

// AttendancePoint is the attendance of a course at the time of a run.
type AttendancePoint struct {
	Time       time.Time
	Semester   int
	Title      string
	Attendance pesu.Attendance
}

// AttendanceHistory lists every recorded attendance of a course, oldest first.
func (s Store) AttendanceHistory(ctx context.Context, user, courseCode string) ([]AttendancePoint, error) {
	param := db.GetAttendanceHistoryParams{
		User:       user,
		CourseCode: courseCode,
	}
	rows, err := s.qry.GetAttendanceHistory(ctx, param)
	if err != nil {
		s.tel.ReportBroken(report_db_query, err, "GetAttendanceHistory", param)
		return nil, err
	}

	points := make([]AttendancePoint, len(rows))
	for i, r := range rows {
		points[i] = AttendancePoint{
			Time:     time.Unix(r.Time, 0).In(chrono.Portal),
			Semester: int(r.Semester),
			Title:    r.CourseTitle,
			Attendance: pesu.Attendance{
				Attended:   fromNullInt(r.Attended),
				Total:      fromNullInt(r.Total),
				Percentage: fromNullFloat(r.Percentage),
			},
		}
	}
	return points, nil
}
