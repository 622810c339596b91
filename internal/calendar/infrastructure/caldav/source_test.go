package caldav

import (
	"context"
	"testing"
	"time"

	"github.com/emersion/go-ical"
	"github.com/emersion/go-webdav/caldav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	calendardomain "untangle/internal/calendar/domain"
	conflicts "untangle/internal/conflicts/domain"
)

func buildObject(t *testing.T, setup func(event *ical.Event)) caldav.CalendarObject {
	t.Helper()
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, "-//Test//EN")

	event := ical.NewEvent()
	event.Props.SetText(ical.PropUID, "uid-1")
	event.Props.SetDateTime(ical.PropDateTimeStamp, time.Now().UTC())
	setup(event)
	cal.Children = append(cal.Children, event.Component)

	return caldav.CalendarObject{Path: "/calendars/user/personal/uid-1.ics", Data: cal}
}

func TestParseCalendarObject(t *testing.T) {
	start := time.Date(2026, 9, 7, 10, 0, 0, 0, time.UTC)
	obj := buildObject(t, func(event *ical.Event) {
		event.Props.SetText(ical.PropSummary, "Design review")
		event.Props.SetDateTime(ical.PropDateTimeStart, start)
		event.Props.SetDateTime(ical.PropDateTimeEnd, start.Add(time.Hour))
		event.Props.SetText(ical.PropOrganizer, "mailto:lead@example.com")

		attendee := ical.NewProp(ical.PropAttendee)
		attendee.Value = "mailto:a@example.com"
		event.Props.Add(attendee)
	})

	parsed, ok := parseCalendarObject(&obj)
	require.True(t, ok)
	assert.Equal(t, "uid-1", parsed.ID)
	assert.Equal(t, "Design review", parsed.Subject)
	assert.Equal(t, start, parsed.Start)
	assert.Equal(t, start.Add(time.Hour), parsed.End)
	assert.Equal(t, "lead@example.com", parsed.Organizer)
	assert.Equal(t, []string{"a@example.com"}, parsed.Attendees)
	assert.Equal(t, conflicts.ShowAsBusy, parsed.ShowAs)
	assert.False(t, parsed.IsAllDay)
	assert.False(t, parsed.IsCancelled)
}

func TestParseCalendarObject_TransparentMapsToFree(t *testing.T) {
	start := time.Date(2026, 9, 7, 10, 0, 0, 0, time.UTC)
	obj := buildObject(t, func(event *ical.Event) {
		event.Props.SetText(ical.PropSummary, "Lunch hold")
		event.Props.SetDateTime(ical.PropDateTimeStart, start)
		event.Props.SetDateTime(ical.PropDateTimeEnd, start.Add(time.Hour))
		event.Props.SetText(ical.PropTransparency, "TRANSPARENT")
	})

	parsed, ok := parseCalendarObject(&obj)
	require.True(t, ok)
	assert.Equal(t, conflicts.ShowAsFree, parsed.ShowAs)
}

func TestParseCalendarObject_CancelledStatus(t *testing.T) {
	start := time.Date(2026, 9, 7, 10, 0, 0, 0, time.UTC)
	obj := buildObject(t, func(event *ical.Event) {
		event.Props.SetText(ical.PropSummary, "Dropped sync")
		event.Props.SetDateTime(ical.PropDateTimeStart, start)
		event.Props.SetDateTime(ical.PropDateTimeEnd, start.Add(time.Hour))
		event.Props.SetText(ical.PropStatus, "CANCELLED")
	})

	parsed, ok := parseCalendarObject(&obj)
	require.True(t, ok)
	assert.True(t, parsed.IsCancelled)
	assert.False(t, parsed.IsEligibleForConflict())
}

func TestParseCalendarObject_AllDay(t *testing.T) {
	start := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)
	obj := buildObject(t, func(event *ical.Event) {
		event.Props.SetText(ical.PropSummary, "Offsite")
		event.Props.SetDateTime(ical.PropDateTimeStart, start)
		event.Props.SetDateTime(ical.PropDateTimeEnd, start.AddDate(0, 0, 1))
	})

	parsed, ok := parseCalendarObject(&obj)
	require.True(t, ok)
	assert.True(t, parsed.IsAllDay)
}

func TestSource_MutationsAreNotSupported(t *testing.T) {
	source := NewSource("https://caldav.example.com", "user", "pass", nil)
	ctx := context.Background()

	assert.ErrorIs(t, source.UpdateEvent(ctx, "id", time.Now(), time.Now()), calendardomain.ErrNotSupported)
	assert.ErrorIs(t, source.DeclineEvent(ctx, "id", "msg"), calendardomain.ErrNotSupported)
	assert.ErrorIs(t, source.MarkDeclined(ctx, "id"), calendardomain.ErrNotSupported)
	assert.ErrorIs(t, source.CancelEvent(ctx, "id", "msg"), calendardomain.ErrNotSupported)
}

func TestSource_WithCalendarPath(t *testing.T) {
	source := NewSource("https://caldav.example.com", "user", "pass", nil)
	result := source.WithCalendarPath("/calendars/user/work/")
	assert.Same(t, source, result)
	assert.Equal(t, "/calendars/user/work/", source.calendarPath)
}
