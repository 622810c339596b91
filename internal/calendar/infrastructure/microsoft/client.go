// Package microsoft talks to the user's Outlook calendar via the Graph API.
package microsoft

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/oauth2"

	availability "untangle/internal/availability/domain"
	calendar "untangle/internal/calendar/domain"
	conflicts "untangle/internal/conflicts/domain"
)

const defaultBaseURL = "https://graph.microsoft.com/v1.0"

// Microsoft OAuth2 endpoints.
const (
	MicrosoftAuthURL  = "https://login.microsoftonline.com/common/oauth2/v2.0/authorize"
	MicrosoftTokenURL = "https://login.microsoftonline.com/common/oauth2/v2.0/token"
)

// DefaultScopes are the Graph permissions the client needs.
var DefaultScopes = []string{
	"https://graph.microsoft.com/Calendars.ReadWrite",
	"https://graph.microsoft.com/Calendars.Read.Shared",
	"offline_access",
}

const scheduleInterval = 30 * time.Minute

// Client implements the calendar source and free/busy ports against the
// Microsoft Graph API.
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	baseURL    string
}

// NewClient creates a Graph client authenticating with the token source.
func NewClient(source oauth2.TokenSource, logger *slog.Logger) *Client {
	return NewClientWithBaseURL(source, logger, "")
}

// NewClientWithBaseURL creates a Graph client against a custom base URL,
// used by tests and API proxies.
func NewClientWithBaseURL(source oauth2.TokenSource, logger *slog.Logger, baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
			Transport: &oauthTransport{
				base:   http.DefaultTransport,
				source: source,
			},
		},
		logger:  logger,
		baseURL: baseURL,
	}
}

// ListEvents returns the user's calendar view within [start, end). The
// calendarView endpoint expands recurring series into occurrences.
func (c *Client) ListEvents(ctx context.Context, start, end time.Time) ([]conflicts.Event, error) {
	params := url.Values{}
	params.Set("startDateTime", start.UTC().Format(time.RFC3339))
	params.Set("endDateTime", end.UTC().Format(time.RFC3339))
	params.Set("$orderby", "start/dateTime")
	params.Set("$top", "250")

	fullURL := fmt.Sprintf("%s/me/calendarView?%s", c.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Prefer", "outlook.timezone=\"UTC\"")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, responseError(resp)
	}

	var payload struct {
		Value []msEvent `json:"value"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}

	events := make([]conflicts.Event, 0, len(payload.Value))
	for _, item := range payload.Value {
		event, err := toDomainEvent(item)
		if err != nil {
			c.logger.Warn("skipping unparseable event", "event_id", item.ID, "error", err)
			continue
		}
		events = append(events, event)
	}
	return events, nil
}

// GetFreeBusy fetches attendee availability via getSchedule. Each returned
// view encodes the window as one digit per half hour.
func (c *Client) GetFreeBusy(ctx context.Context, attendees []string, start, end time.Time) ([]availability.FreeBusyView, error) {
	request := map[string]any{
		"schedules": attendees,
		"startTime": msDateTime{
			DateTime: start.UTC().Format("2006-01-02T15:04:05"),
			TimeZone: "UTC",
		},
		"endTime": msDateTime{
			DateTime: end.UTC().Format("2006-01-02T15:04:05"),
			TimeZone: "UTC",
		},
		"availabilityViewInterval": int(scheduleInterval.Minutes()),
	}
	body, err := json.Marshal(request)
	if err != nil {
		return nil, err
	}

	fullURL := fmt.Sprintf("%s/me/calendar/getSchedule", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fullURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "outlook.timezone=\"UTC\"")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, responseError(resp)
	}

	var payload struct {
		Value []struct {
			ScheduleID       string `json:"scheduleId"`
			AvailabilityView string `json:"availabilityView"`
		} `json:"value"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}

	views := make([]availability.FreeBusyView, 0, len(payload.Value))
	for _, item := range payload.Value {
		views = append(views, availability.FreeBusyView{
			Attendee: item.ScheduleID,
			Origin:   start.UTC(),
			Interval: scheduleInterval,
			Codes:    item.AvailabilityView,
		})
	}
	return views, nil
}

// UpdateEvent moves an event to a new time.
func (c *Client) UpdateEvent(ctx context.Context, id string, newStart, newEnd time.Time) error {
	patch := map[string]any{
		"start": msDateTime{
			DateTime: newStart.UTC().Format("2006-01-02T15:04:05"),
			TimeZone: "UTC",
		},
		"end": msDateTime{
			DateTime: newEnd.UTC().Format("2006-01-02T15:04:05"),
			TimeZone: "UTC",
		},
	}
	body, err := json.Marshal(patch)
	if err != nil {
		return err
	}

	updateURL := fmt.Sprintf("%s/me/events/%s", c.baseURL, url.PathEscape(id))
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, updateURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return responseError(resp)
	}
	return nil
}

// DeclineEvent declines with a comment, notifying the organizer. When the
// organizer did not request responses, ErrResponseNotRequested is returned
// and nothing is sent.
func (c *Client) DeclineEvent(ctx context.Context, id, message string) error {
	requested, err := c.responseRequested(ctx, id)
	if err != nil {
		return err
	}
	if !requested {
		return calendar.ErrResponseNotRequested
	}
	return c.decline(ctx, id, message, true)
}

// MarkDeclined declines without sending a response to the organizer.
func (c *Client) MarkDeclined(ctx context.Context, id string) error {
	return c.decline(ctx, id, "", false)
}

// CancelEvent cancels an event the user organizes, with a message to the
// attendees.
func (c *Client) CancelEvent(ctx context.Context, id, message string) error {
	body, err := json.Marshal(map[string]string{"comment": message})
	if err != nil {
		return err
	}

	cancelURL := fmt.Sprintf("%s/me/events/%s/cancel", c.baseURL, url.PathEscape(id))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cancelURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return responseError(resp)
	}
	return nil
}

// Helper methods

func (c *Client) responseRequested(ctx context.Context, id string) (bool, error) {
	getURL := fmt.Sprintf("%s/me/events/%s?$select=responseRequested", c.baseURL, url.PathEscape(id))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, getURL, nil)
	if err != nil {
		return false, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return false, responseError(resp)
	}

	var payload struct {
		ResponseRequested bool `json:"responseRequested"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return false, err
	}
	return payload.ResponseRequested, nil
}

func (c *Client) decline(ctx context.Context, id, message string, sendResponse bool) error {
	body, err := json.Marshal(map[string]any{
		"comment":      message,
		"sendResponse": sendResponse,
	})
	if err != nil {
		return err
	}

	declineURL := fmt.Sprintf("%s/me/events/%s/decline", c.baseURL, url.PathEscape(id))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, declineURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return responseError(resp)
	}
	return nil
}

// Microsoft Graph API event types

type msEvent struct {
	ID             string       `json:"id"`
	Subject        string       `json:"subject"`
	Start          msDateTime   `json:"start"`
	End            msDateTime   `json:"end"`
	ShowAs         string       `json:"showAs"`
	IsAllDay       bool         `json:"isAllDay"`
	IsCancelled    bool         `json:"isCancelled"`
	Organizer      msOrganizer  `json:"organizer"`
	Attendees      []msAttendee `json:"attendees"`
	ResponseStatus msStatus     `json:"responseStatus"`
}

type msDateTime struct {
	DateTime string `json:"dateTime"`
	TimeZone string `json:"timeZone"`
}

type msOrganizer struct {
	EmailAddress msEmailAddress `json:"emailAddress"`
}

type msAttendee struct {
	Type         string         `json:"type,omitempty"`
	EmailAddress msEmailAddress `json:"emailAddress"`
}

type msStatus struct {
	Response string `json:"response,omitempty"`
	Time     string `json:"time,omitempty"`
}

type msEmailAddress struct {
	Name    string `json:"name,omitempty"`
	Address string `json:"address,omitempty"`
}

func toDomainEvent(item msEvent) (conflicts.Event, error) {
	start, err := parseGraphTime(item.Start.DateTime)
	if err != nil {
		return conflicts.Event{}, fmt.Errorf("parsing start: %w", err)
	}
	end, err := parseGraphTime(item.End.DateTime)
	if err != nil {
		return conflicts.Event{}, fmt.Errorf("parsing end: %w", err)
	}

	attendees := make([]string, 0, len(item.Attendees))
	for _, att := range item.Attendees {
		if att.EmailAddress.Address != "" {
			attendees = append(attendees, att.EmailAddress.Address)
		}
	}

	return conflicts.Event{
		ID:             item.ID,
		Subject:        item.Subject,
		Start:          start,
		End:            end,
		Organizer:      item.Organizer.EmailAddress.Address,
		Attendees:      attendees,
		IsAllDay:       item.IsAllDay,
		IsCancelled:    item.IsCancelled,
		ShowAs:         mapShowAs(item.ShowAs),
		ResponseStatus: mapResponseStatus(item.ResponseStatus.Response),
	}, nil
}

func parseGraphTime(value string) (time.Time, error) {
	t, err := time.Parse("2006-01-02T15:04:05.0000000", value)
	if err == nil {
		return t.UTC(), nil
	}
	t, err = time.Parse("2006-01-02T15:04:05", value)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

func mapShowAs(showAs string) conflicts.ShowAs {
	switch showAs {
	case "free":
		return conflicts.ShowAsFree
	case "tentative":
		return conflicts.ShowAsTentative
	case "busy":
		return conflicts.ShowAsBusy
	case "oof":
		return conflicts.ShowAsOOF
	case "workingElsewhere":
		return conflicts.ShowAsWorkingElsewhere
	default:
		return conflicts.ShowAsUnknown
	}
}

func mapResponseStatus(response string) conflicts.ResponseStatus {
	switch response {
	case "accepted":
		return conflicts.ResponseAccepted
	case "declined":
		return conflicts.ResponseDeclined
	case "organizer":
		return conflicts.ResponseOrganizer
	default:
		return conflicts.ResponseNone
	}
}

func responseError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)
	return fmt.Errorf("microsoft graph API failed: status=%d body=%s", resp.StatusCode, string(body))
}

type oauthTransport struct {
	base   http.RoundTripper
	source oauth2.TokenSource
}

func (t *oauthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	token, err := t.source.Token()
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token.AccessToken)
	return t.base.RoundTrip(req)
}
