// Package caldav reads the user's calendar from a CalDAV server (Apple
// Calendar, Fastmail, Nextcloud and friends). The source is read-only:
// conflicts are detected and proposals produced, but mutations must go
// through a provider with a write API.
package caldav

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/emersion/go-ical"
	"github.com/emersion/go-webdav"
	"github.com/emersion/go-webdav/caldav"

	calendardomain "untangle/internal/calendar/domain"
	conflicts "untangle/internal/conflicts/domain"
)

// Common CalDAV server URLs.
const (
	AppleCalDAVURL    = "https://caldav.icloud.com"
	FastmailCalDAVURL = "https://caldav.fastmail.com"
)

// Source reads calendar events over CalDAV.
type Source struct {
	baseURL      string
	username     string
	password     string
	calendarPath string
	logger       *slog.Logger
}

// NewSource creates a CalDAV source.
func NewSource(baseURL, username, password string, logger *slog.Logger) *Source {
	if logger == nil {
		logger = slog.Default()
	}
	return &Source{
		baseURL:  baseURL,
		username: username,
		password: password,
		logger:   logger,
	}
}

// WithCalendarPath pins the source to a specific calendar collection instead
// of the principal's first calendar.
func (s *Source) WithCalendarPath(path string) *Source {
	s.calendarPath = path
	return s
}

// ListEvents queries VEVENTs within [start, end).
func (s *Source) ListEvents(ctx context.Context, start, end time.Time) ([]conflicts.Event, error) {
	client, err := s.getClient()
	if err != nil {
		return nil, err
	}

	calPath, err := s.findCalendarPath(ctx, client)
	if err != nil {
		return nil, fmt.Errorf("failed to find calendar: %w", err)
	}

	query := &caldav.CalendarQuery{
		CompRequest: caldav.CalendarCompRequest{
			Name:  "VCALENDAR",
			Props: []string{"VERSION"},
			Comps: []caldav.CalendarCompRequest{
				{
					Name:  "VEVENT",
					Props: []string{"SUMMARY", "DTSTART", "DTEND", "UID", "STATUS", "TRANSP", "ORGANIZER", "ATTENDEE"},
				},
			},
		},
		CompFilter: caldav.CompFilter{
			Name: "VCALENDAR",
			Comps: []caldav.CompFilter{
				{
					Name:  "VEVENT",
					Start: start,
					End:   end,
				},
			},
		},
	}

	objects, err := client.QueryCalendar(ctx, calPath, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query calendar: %w", err)
	}

	events := make([]conflicts.Event, 0, len(objects))
	for _, obj := range objects {
		if event, ok := parseCalendarObject(&obj); ok {
			events = append(events, event)
		}
	}
	return events, nil
}

// UpdateEvent is not available over this source.
func (s *Source) UpdateEvent(ctx context.Context, id string, newStart, newEnd time.Time) error {
	return calendardomain.ErrNotSupported
}

// DeclineEvent is not available over this source.
func (s *Source) DeclineEvent(ctx context.Context, id, message string) error {
	return calendardomain.ErrNotSupported
}

// MarkDeclined is not available over this source.
func (s *Source) MarkDeclined(ctx context.Context, id string) error {
	return calendardomain.ErrNotSupported
}

// CancelEvent is not available over this source.
func (s *Source) CancelEvent(ctx context.Context, id, message string) error {
	return calendardomain.ErrNotSupported
}

// Helper methods

func (s *Source) getClient() (*caldav.Client, error) {
	httpClient := &http.Client{Timeout: 30 * time.Second}

	client, err := caldav.NewClient(webdav.HTTPClientWithBasicAuth(httpClient, s.username, s.password), s.baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create caldav client: %w", err)
	}
	return client, nil
}

func (s *Source) findCalendarPath(ctx context.Context, client *caldav.Client) (string, error) {
	if s.calendarPath != "" {
		return s.calendarPath, nil
	}

	principal, err := client.FindCurrentUserPrincipal(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to find principal: %w", err)
	}

	homeSet, err := client.FindCalendarHomeSet(ctx, principal)
	if err != nil {
		return "", fmt.Errorf("failed to find calendar home set: %w", err)
	}

	cals, err := client.FindCalendars(ctx, homeSet)
	if err != nil {
		return "", fmt.Errorf("failed to find calendars: %w", err)
	}
	if len(cals) == 0 {
		return "", fmt.Errorf("no calendars found")
	}

	return cals[0].Path, nil
}

func parseCalendarObject(obj *caldav.CalendarObject) (conflicts.Event, bool) {
	if obj == nil || obj.Data == nil {
		return conflicts.Event{}, false
	}

	for _, child := range obj.Data.Children {
		if child.Name != ical.CompEvent {
			continue
		}

		event := conflicts.Event{
			ID:     obj.Path,
			ShowAs: conflicts.ShowAsBusy,
		}
		if props := child.Props[ical.PropUID]; len(props) > 0 {
			event.ID = props[0].Value
		}
		if props := child.Props[ical.PropSummary]; len(props) > 0 {
			event.Subject = props[0].Value
		}
		if props := child.Props[ical.PropStatus]; len(props) > 0 {
			if strings.EqualFold(props[0].Value, "CANCELLED") {
				event.IsCancelled = true
			}
		}
		// TRANSP:TRANSPARENT is the iCalendar equivalent of show-as free.
		if props := child.Props[ical.PropTransparency]; len(props) > 0 {
			if strings.EqualFold(props[0].Value, "TRANSPARENT") {
				event.ShowAs = conflicts.ShowAsFree
			}
		}
		if props := child.Props[ical.PropOrganizer]; len(props) > 0 {
			event.Organizer = stripMailto(props[0].Value)
		}
		for _, prop := range child.Props[ical.PropAttendee] {
			if addr := stripMailto(prop.Value); addr != "" {
				event.Attendees = append(event.Attendees, addr)
			}
		}

		icalEvent := &ical.Event{Component: child}
		start, err := icalEvent.DateTimeStart(time.UTC)
		if err != nil {
			return conflicts.Event{}, false
		}
		end, err := icalEvent.DateTimeEnd(time.UTC)
		if err != nil {
			return conflicts.Event{}, false
		}
		event.Start = start
		event.End = end

		// DATE-valued starts span whole days.
		if start.Hour() == 0 && start.Minute() == 0 &&
			end.Hour() == 0 && end.Minute() == 0 &&
			end.Sub(start) >= 24*time.Hour {
			event.IsAllDay = true
		}

		return event, true
	}

	return conflicts.Event{}, false
}

func stripMailto(value string) string {
	return strings.TrimPrefix(strings.TrimSpace(value), "mailto:")
}
