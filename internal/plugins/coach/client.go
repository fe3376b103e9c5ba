package coach

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/kindmind/kindmind/internal/apperror"
	"github.com/kindmind/kindmind/internal/config"
)

// CredentialSource resolves the provider API key before every call. The key
// is captured once through the teacher API and stored server-side; absence
// blocks all gateway operations with a credential_missing error.
type CredentialSource interface {
	APIKey(ctx context.Context) (string, error)
}

// Gateway is the boundary interface the rest of the application depends on.
// All operations are fallible due to network/provider variability except
// ClassifyMood, which degrades to a default instead of failing.
type Gateway interface {
	// Continue produces the coach's next short open-ended question for an
	// in-progress conversation.
	Continue(ctx context.Context, history []Turn) (string, error)

	// Conclude produces a short warm closing statement, no question.
	Conclude(ctx context.Context, history []Turn) (string, error)

	// Summarize requests a structured {mood, message} summary of the full
	// transcript. Returns a summary_parse_error when the provider response
	// is not valid structured data of that shape.
	Summarize(ctx context.Context, history []Turn) (Summary, error)

	// ClassifyMood buckets a short mood phrase into one of the four
	// quadrants. Never returns an error: unrecognized labels and provider
	// failures both degrade to the BLUE default with Defaulted set.
	ClassifyMood(ctx context.Context, moodText string) Classification

	// ValidateCredential performs a minimal low-cost request to confirm the
	// candidate key is accepted by the provider. Any failure is treated as
	// invalidity, never propagated.
	ValidateCredential(ctx context.Context, candidateKey string) bool
}

// Client is the HTTP implementation of Gateway against a Google
// generative-language style API: POST {base}/models/{model}:generateContent
// with role-tagged contents, optional systemInstruction, and an optional
// JSON response schema.
type Client struct {
	http    *http.Client
	baseURL string
	model   string
	creds   CredentialSource
}

// NewClient creates a gateway client. The HTTP client carries an explicit
// timeout so a hung provider call can never wedge a request handler.
func NewClient(cfg config.CoachConfig, creds CredentialSource) *Client {
	return &Client{
		http:    &http.Client{Timeout: cfg.Timeout},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		model:   cfg.Model,
		creds:   creds,
	}
}

// --- Wire format ---

// generateRequest is the provider request body.
type generateRequest struct {
	Contents          []content         `json:"contents"`
	SystemInstruction *content          `json:"systemInstruction,omitempty"`
	GenerationConfig  *generationConfig `json:"generationConfig,omitempty"`
}

// content is an ordered list of parts attributed to one role.
type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

// part holds a single text fragment.
type part struct {
	Text string `json:"text"`
}

// generationConfig selects plain-text or schema-constrained JSON output.
type generationConfig struct {
	ResponseMIMEType string  `json:"responseMimeType,omitempty"`
	ResponseSchema   *schema `json:"responseSchema,omitempty"`
}

// schema is the subset of the provider's OpenAPI-style schema language we
// need: a flat object of required string fields.
type schema struct {
	Type       string             `json:"type"`
	Properties map[string]*schema `json:"properties,omitempty"`
	Required   []string           `json:"required,omitempty"`
}

// summarySchema constrains Summarize responses to exactly {mood, message}.
func summarySchema() *schema {
	return &schema{
		Type: "OBJECT",
		Properties: map[string]*schema{
			"mood":    {Type: "STRING"},
			"message": {Type: "STRING"},
		},
		Required: []string{"mood", "message"},
	}
}

// generateResponse is the subset of the provider response we read.
type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// countTokensRequest is the minimal body for the credential probe endpoint.
type countTokensRequest struct {
	Contents []content `json:"contents"`
}

// --- Gateway implementation ---

// Continue produces the next coach question for an in-progress conversation.
func (c *Client) Continue(ctx context.Context, history []Turn) (string, error) {
	return c.generateText(ctx, continueInstruction, history)
}

// Conclude produces the closing remark for the final turn.
func (c *Client) Conclude(ctx context.Context, history []Turn) (string, error) {
	return c.generateText(ctx, closeInstruction, history)
}

// Summarize requests the structured end-of-conversation summary.
func (c *Client) Summarize(ctx context.Context, history []Turn) (Summary, error) {
	key, err := c.creds.APIKey(ctx)
	if err != nil {
		return Summary{}, err
	}

	req := generateRequest{
		Contents:          turnsToContents(history),
		SystemInstruction: &content{Parts: []part{{Text: summarizeInstruction}}},
		GenerationConfig: &generationConfig{
			ResponseMIMEType: "application/json",
			ResponseSchema:   summarySchema(),
		},
	}

	raw, err := c.generate(ctx, key, req)
	if err != nil {
		return Summary{}, err
	}

	var summary Summary
	if err := json.Unmarshal([]byte(raw), &summary); err != nil {
		return Summary{}, apperror.NewSummaryParse(fmt.Errorf("decoding summary payload: %w", err))
	}
	if summary.Mood == "" || summary.Message == "" {
		return Summary{}, apperror.NewSummaryParse(fmt.Errorf("summary payload missing fields: %q", raw))
	}

	return summary, nil
}

// ClassifyMood buckets a mood phrase into a quadrant, degrading to the BLUE
// default on any provider misbehavior. Degradations are logged but never
// surfaced -- the dashboard must stay usable with a flaky classifier.
func (c *Client) ClassifyMood(ctx context.Context, moodText string) Classification {
	key, err := c.creds.APIKey(ctx)
	if err != nil {
		slog.Warn("mood classification degraded: no provider credential")
		return DefaultClassification()
	}

	req := generateRequest{
		Contents:          []content{{Role: string(RoleUser), Parts: []part{{Text: moodText}}}},
		SystemInstruction: &content{Parts: []part{{Text: classifyInstruction}}},
	}

	raw, err := c.generate(ctx, key, req)
	if err != nil {
		slog.Warn("mood classification degraded",
			slog.String("mood", moodText),
			slog.Any("error", err),
		)
		return DefaultClassification()
	}

	quadrant, ok := ParseQuadrant(raw)
	if !ok {
		slog.Warn("mood classification degraded: unrecognized label",
			slog.String("mood", moodText),
			slog.String("label", raw),
		)
		return DefaultClassification()
	}

	return Classification{Quadrant: quadrant}
}

// ValidateCredential probes the cheap countTokens endpoint with the
// candidate key. Any error at all means the key is treated as invalid.
func (c *Client) ValidateCredential(ctx context.Context, candidateKey string) bool {
	body, err := json.Marshal(countTokensRequest{
		Contents: []content{{Role: string(RoleUser), Parts: []part{{Text: "ping"}}}},
	})
	if err != nil {
		return false
	}

	url := fmt.Sprintf("%s/models/%s:countTokens", c.baseURL, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return false
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", candidateKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	return resp.StatusCode == http.StatusOK
}

// --- Internals ---

// generateText runs a plain-text generation call with the given system
// instruction over the transcript.
func (c *Client) generateText(ctx context.Context, instruction string, history []Turn) (string, error) {
	key, err := c.creds.APIKey(ctx)
	if err != nil {
		return "", err
	}

	req := generateRequest{
		Contents:          turnsToContents(history),
		SystemInstruction: &content{Parts: []part{{Text: instruction}}},
	}

	text, err := c.generate(ctx, key, req)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// generate performs one generateContent round-trip and returns the first
// candidate's concatenated text.
func (c *Client) generate(ctx context.Context, apiKey string, reqBody generateRequest) (string, error) {
	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", apperror.NewInternal(fmt.Errorf("encoding provider request: %w", err))
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", apperror.NewInternal(fmt.Errorf("building provider request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", apperror.NewProviderUnavailable(fmt.Errorf("calling provider: %w", err))
	}
	defer resp.Body.Close()

	// Bound the read: candidate responses are short, anything near this
	// limit is malformed.
	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", apperror.NewProviderUnavailable(fmt.Errorf("reading provider response: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		return "", apperror.NewProviderUnavailable(fmt.Errorf("provider status %d: %s", resp.StatusCode, truncate(string(data), 200)))
	}

	var parsed generateResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", apperror.NewProviderUnavailable(fmt.Errorf("decoding provider response: %w", err))
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", apperror.NewProviderUnavailable(fmt.Errorf("provider returned no candidates"))
	}

	var sb strings.Builder
	for _, p := range parsed.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return sb.String(), nil
}

// turnsToContents maps transcript turns onto the wire format.
func turnsToContents(history []Turn) []content {
	contents := make([]content, 0, len(history))
	for _, t := range history {
		contents = append(contents, content{
			Role:  string(t.Role),
			Parts: []part{{Text: t.Text}},
		})
	}
	return contents
}

// truncate shortens provider error bodies for logging.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
