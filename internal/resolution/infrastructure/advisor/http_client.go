// Package advisor calls an OpenAI-compatible chat completion API to
// second-guess rule-based resolution proposals.
package advisor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	conflicts "untangle/internal/conflicts/domain"
	resolutionapp "untangle/internal/resolution/application"
	"untangle/internal/resolution/domain"
)

const systemPrompt = `You are a scheduling assistant. You receive a calendar conflict
and a rule-based resolution proposal. Reply with a single JSON object:
{"action": one of "reschedule_lower_priority", "suggest_reschedule",
"decline_lower_priority", "manual_decision"; "reasoning": short sentence;
"confidence": 0.0-1.0; "alternatives": up to three short suggestions}.`

// Client implements the advisor port against a chat-completions endpoint.
type Client struct {
	httpClient *http.Client
	endpoint   string
	apiKey     string
	model      string
	logger     *slog.Logger
}

// NewClient creates an advisor client. endpoint is the API base URL, for
// example "https://api.openai.com/v1".
func NewClient(endpoint, apiKey, model string, timeout time.Duration, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		endpoint:   strings.TrimRight(endpoint, "/"),
		apiKey:     apiKey,
		model:      model,
		logger:     logger,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

type analysisJSON struct {
	Action       string   `json:"action"`
	Reasoning    string   `json:"reasoning"`
	Confidence   float64  `json:"confidence"`
	Alternatives []string `json:"alternatives"`
}

// Analyze submits the conflict summary and parses the model's judgment.
func (c *Client) Analyze(ctx context.Context, group conflicts.ConflictGroup, proposal domain.Proposal, scored []domain.ScoredEvent) (resolutionapp.Analysis, error) {
	request := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: conflictSummary(group, proposal, scored)},
		},
		Temperature: 0.2,
	}
	body, err := json.Marshal(request)
	if err != nil {
		return resolutionapp.Analysis{}, err
	}

	url := c.endpoint + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return resolutionapp.Analysis{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return resolutionapp.Analysis{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(resp.Body)
		return resolutionapp.Analysis{}, fmt.Errorf("advisor API failed: status=%d body=%s", resp.StatusCode, string(raw))
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return resolutionapp.Analysis{}, err
	}
	if len(parsed.Choices) == 0 {
		return resolutionapp.Analysis{}, fmt.Errorf("advisor returned no choices")
	}

	return parseAnalysis(parsed.Choices[0].Message.Content)
}

func parseAnalysis(content string) (resolutionapp.Analysis, error) {
	// Models occasionally fence the JSON; strip markers before decoding.
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")

	var raw analysisJSON
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &raw); err != nil {
		return resolutionapp.Analysis{}, fmt.Errorf("parsing advisor reply: %w", err)
	}

	action, err := domain.ParseAction(raw.Action)
	if err != nil {
		return resolutionapp.Analysis{}, fmt.Errorf("advisor reply: %w", err)
	}
	if raw.Confidence < 0 || raw.Confidence > 1 {
		return resolutionapp.Analysis{}, fmt.Errorf("advisor reply: confidence %v out of range", raw.Confidence)
	}

	return resolutionapp.Analysis{
		Action:       action,
		Reasoning:    raw.Reasoning,
		Confidence:   raw.Confidence,
		Alternatives: raw.Alternatives,
	}, nil
}

func conflictSummary(group conflicts.ConflictGroup, proposal domain.Proposal, scored []domain.ScoredEvent) string {
	var b strings.Builder
	r := group.Range()
	fmt.Fprintf(&b, "Conflict from %s to %s with %d events:\n",
		r.Start.Format("2006-01-02 15:04"), r.End.Format("15:04"), group.Size())
	for _, s := range scored {
		fmt.Fprintf(&b, "- %q (%s to %s, %d attendees, priority %d: %s)\n",
			s.Event.Subject,
			s.Event.Start.Format("15:04"),
			s.Event.End.Format("15:04"),
			len(s.Event.Attendees),
			s.Priority.Score,
			strings.Join(s.Priority.Reasons, "; "),
		)
	}
	fmt.Fprintf(&b, "Rule-based proposal: %s (%s), priority gap %d.\n",
		proposal.Action, proposal.Description, proposal.Gap)
	return b.String()
}
