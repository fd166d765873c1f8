package db

import (
	"database/sql"
)

type AttendanceSnapshot struct {
	RunID       string
	CourseCode  string
	CourseTitle string
	Attended    sql.NullInt64
	Total       sql.NullInt64
	Percentage  sql.NullFloat64
}

type SnapshotRun struct {
	ID       string
	User     string
	Semester int64
	Time     int64
}
