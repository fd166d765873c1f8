// source: queries.sql

package db

import (
	"context"
	"database/sql"
)

const createAttendanceSnapshot = `-- name: CreateAttendanceSnapshot :exec
insert into AttendanceSnapshot(runId, courseCode, courseTitle, attended, total, percentage)
values (?, ?, ?, ?, ?, ?)
`

type CreateAttendanceSnapshotParams struct {
	RunID       string
	CourseCode  string
	CourseTitle string
	Attended    sql.NullInt64
	Total       sql.NullInt64
	Percentage  sql.NullFloat64
}

func (q *Queries) CreateAttendanceSnapshot(ctx context.Context, arg CreateAttendanceSnapshotParams) error {
	_, err := q.db.ExecContext(ctx, createAttendanceSnapshot,
		arg.RunID,
		arg.CourseCode,
		arg.CourseTitle,
		arg.Attended,
		arg.Total,
		arg.Percentage,
	)
	return err
}

const createRun = `-- name: CreateRun :exec
insert into SnapshotRun(id, user, semester, time)
values (?, ?, ?, ?)
`

type CreateRunParams struct {
	ID       string
	User     string
	Semester int64
	Time     int64
}

func (q *Queries) CreateRun(ctx context.Context, arg CreateRunParams) error {
	_, err := q.db.ExecContext(ctx, createRun,
		arg.ID,
		arg.User,
		arg.Semester,
		arg.Time,
	)
	return err
}

const deleteAttendanceSnapshotsIn = `-- name: DeleteAttendanceSnapshotsIn :exec
delete from AttendanceSnapshot
where runId in (
    select id from SnapshotRun
    where user = ?1
        and semester = ?2
        and time >= ?3
        and time < ?4
)
`

type DeleteAttendanceSnapshotsInParams struct {
	User     string
	Semester int64
	After    int64
	Before   int64
}

func (q *Queries) DeleteAttendanceSnapshotsIn(ctx context.Context, arg DeleteAttendanceSnapshotsInParams) error {
	_, err := q.db.ExecContext(ctx, deleteAttendanceSnapshotsIn,
		arg.User,
		arg.Semester,
		arg.After,
		arg.Before,
	)
	return err
}

const deleteRunsIn = `-- name: DeleteRunsIn :exec
delete from SnapshotRun
where user = ?1
    and semester = ?2
    and time >= ?3
    and time < ?4
`

type DeleteRunsInParams struct {
	User     string
	Semester int64
	After    int64
	Before   int64
}

func (q *Queries) DeleteRunsIn(ctx context.Context, arg DeleteRunsInParams) error {
	_, err := q.db.ExecContext(ctx, deleteRunsIn,
		arg.User,
		arg.Semester,
		arg.After,
		arg.Before,
	)
	return err
}

const getAttendanceHistory = `-- name: GetAttendanceHistory :many
select SnapshotRun.time, SnapshotRun.semester, AttendanceSnapshot.courseTitle,
    AttendanceSnapshot.attended, AttendanceSnapshot.total, AttendanceSnapshot.percentage
from AttendanceSnapshot
inner join SnapshotRun on SnapshotRun.id = AttendanceSnapshot.runId
where SnapshotRun.user = ? and AttendanceSnapshot.courseCode = ?
order by SnapshotRun.time asc
`

type GetAttendanceHistoryParams struct {
	User       string
	CourseCode string
}

type GetAttendanceHistoryRow struct {
	Time        int64
	Semester    int64
	CourseTitle string
	Attended    sql.NullInt64
	Total       sql.NullInt64
	Percentage  sql.NullFloat64
}

func (q *Queries) GetAttendanceHistory(ctx context.Context, arg GetAttendanceHistoryParams) ([]GetAttendanceHistoryRow, error) {
	rows, err := q.db.QueryContext(ctx, getAttendanceHistory, arg.User, arg.CourseCode)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []GetAttendanceHistoryRow
	for rows.Next() {
		var i GetAttendanceHistoryRow
		if err := rows.Scan(
			&i.Time,
			&i.Semester,
			&i.CourseTitle,
			&i.Attended,
			&i.Total,
			&i.Percentage,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getLatestRun = `-- name: GetLatestRun :one
select id, user, semester, time from SnapshotRun
where user = ? and semester = ?
order by time desc
limit 1
`

type GetLatestRunParams struct {
	User     string
	Semester int64
}

func (q *Queries) GetLatestRun(ctx context.Context, arg GetLatestRunParams) (SnapshotRun, error) {
	row := q.db.QueryRowContext(ctx, getLatestRun, arg.User, arg.Semester)
	var i SnapshotRun
	err := row.Scan(
		&i.ID,
		&i.User,
		&i.Semester,
		&i.Time,
	)
	return i, err
}

const getRunAttendance = `-- name: GetRunAttendance :many
select runId, courseCode, courseTitle, attended, total, percentage from AttendanceSnapshot
where runId = ?
order by courseCode asc
`

func (q *Queries) GetRunAttendance(ctx context.Context, runid string) ([]AttendanceSnapshot, error) {
	rows, err := q.db.QueryContext(ctx, getRunAttendance, runid)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []AttendanceSnapshot
	for rows.Next() {
		var i AttendanceSnapshot
		if err := rows.Scan(
			&i.RunID,
			&i.CourseCode,
			&i.CourseTitle,
			&i.Attended,
			&i.Total,
			&i.Percentage,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
