package notify

import (
	"context"
	"fmt"
	"strings"

	"pesuacademy/internal/assert"
	"pesuacademy/internal/components/telemetry"
	"pesuacademy/internal/scrapers/pesu"

	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("pesuacademy/internal/notify")

const report_notify_attendance = "notify.attendance"

// Shortage is a course whose attendance dropped below the threshold.
type Shortage struct {
	Course pesu.Course
	// Previous is the percentage of the last recorded run, nil if the course
	// wasn't recorded before.
	Previous *float64
}

func percentage(c pesu.Course) *float64 {
	if c.Attendance == nil {
		return nil
	}
	return c.Attendance.Percentage
}

// Shortages returns the courses in `current` that are below `threshold` and
// weren't already below it in `previous`, courses without a percentage are
// ignored.
func Shortages(previous, current []pesu.Course, threshold float64) []Shortage {
	before := make(map[string]*float64, len(previous))
	for _, c := range previous {
		before[c.Code] = percentage(c)
	}

	var out []Shortage
	for _, c := range current {
		now := percentage(c)
		if now == nil || *now >= threshold {
			continue
		}
		last := before[c.Code]
		if last != nil && *last < threshold {
			continue
		}
		out = append(out, Shortage{Course: c, Previous: last})
	}
	return out
}

func formatShortages(user string, semester int, threshold float64, shortages []Shortage) (subject, body string) {
	subject = fmt.Sprintf("Attendance below %g%% in %d course(s)", threshold, len(shortages))

	var b strings.Builder
	fmt.Fprintf(&b, "Attendance of %s for semester %d fell below %g%%:\n\n", user, semester, threshold)
	for _, s := range shortages {
		fmt.Fprintf(&b, "%s %s: %s", s.Course.Code, s.Course.Title, s.Course.Attendance)
		if s.Previous != nil {
			fmt.Fprintf(&b, ", was %g%%", *s.Previous)
		}
		b.WriteString("\n")
	}
	return subject, b.String()
}

// Notifier alerts a user when their attendance drops below a threshold.
type Notifier struct {
	sender    Sender
	threshold float64
	tel       telemetry.API
}

func NewNotifier(sender Sender, threshold float64, tel telemetry.API) Notifier {
	assert.NotNil(sender)
	assert.Positive(threshold)
	assert.NotNil(tel)

	return Notifier{
		sender:    sender,
		threshold: threshold,
		tel:       telemetry.NewScopedAPI("notify", tel),
	}
}

// NotifyAttendance sends a single notification listing every new shortage
// and returns how many there were, nothing is sent when there are none.
func (n Notifier) NotifyAttendance(ctx context.Context, user string, semester int, previous, current []pesu.Course) (int, error) {
	ctx, span := tracer.Start(ctx, "NotifyAttendance")
	defer span.End()

	shortages := Shortages(previous, current, n.threshold)
	if len(shortages) == 0 {
		return 0, nil
	}

	subject, body := formatShortages(user, semester, n.threshold, shortages)
	err := n.sender.Send(ctx, subject, body)
	if err != nil {
		n.tel.ReportBroken(report_notify_attendance, err, user, semester)
		return 0, err
	}
	n.tel.ReportCount(report_notify_attendance, int64(len(shortages)))
	return len(shortages), nil
}
