package chrono

import (
	"time"
	_ "time/tzdata"
)

// Portal is the timezone the portal renders its dates in.
var Portal *time.Location

func init() {
	var err error
	Portal, err = time.LoadLocation("Asia/Kolkata")
	if err != nil {
		panic(err)
	}
}

type API interface {
	Now() time.Time
	Location() *time.Location
}

type StandardImpl struct {
	location *time.Location
}

func NewStandardImpl() StandardImpl {
	return StandardImpl{location: Portal}
}

func (s StandardImpl) Now() time.Time {
	return time.Now().In(s.location)
}

func (s StandardImpl) Location() *time.Location {
	return s.location
}

// FixedImpl always reports the same instant, unless advanced with Set.
type FixedImpl struct {
	now *time.Time
}

func NewFixedImpl(now time.Time) FixedImpl {
	return FixedImpl{now: &now}
}

func (f FixedImpl) Now() time.Time {
	return f.now.In(Portal)
}

func (f FixedImpl) Location() *time.Location {
	return Portal
}

func (f FixedImpl) Set(now time.Time) {
	*f.now = now
}
