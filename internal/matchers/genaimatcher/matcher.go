package genaimatcher

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/bobmcallan/rulecheck/internal/model"
)

const categoryID = "genai-grammar"

// generator is the subset of Client that Matcher depends on, narrowed so
// tests can substitute a fake without a live model.
type generator interface {
	generate(ctx context.Context, prompt string) (string, error)
}

// Matcher adapts a generator to the pool.Matcher capability. It declares a
// single synthetic category, matching the Validator contract of spec §4.6.
type Matcher struct {
	id     string
	client generator
}

// New creates a genai-backed Matcher with the given id.
func New(id string, client *Client) *Matcher {
	return &Matcher{id: id, client: client}
}

func (m *Matcher) ID() string   { return m.id }
func (m *Matcher) Type() string { return "genai" }

func (m *Matcher) Categories() []model.Category {
	return []model.Category{{ID: categoryID, Name: "AI Grammar Review"}}
}

// modelFinding is the JSON shape the prompt asks the model to respond with,
// one per detected issue.
type modelFinding struct {
	From        int      `json:"from"`
	To          int      `json:"to"`
	Message     string   `json:"message"`
	MatchedText string   `json:"matchedText"`
	Replacement []string `json:"replacement,omitempty"`
}

// Check asks the model to review each block independently and re-bases its
// reported offsets (which are relative to the block's own text) onto
// document coordinates.
func (m *Matcher) Check(ctx context.Context, req model.MatcherRequest) ([]model.RuleMatch, error) {
	var matches []model.RuleMatch
	for _, b := range req.Blocks {
		if strings.TrimSpace(b.Text) == "" {
			continue
		}

		response, err := m.client.generate(ctx, buildPrompt(b.Text))
		if err != nil {
			return nil, fmt.Errorf("genaimatcher: %w", err)
		}

		findings, err := parseFindings(response)
		if err != nil {
			return nil, fmt.Errorf("genaimatcher: malformed model response: %w", err)
		}

		for _, f := range findings {
			if f.From < 0 || f.To < f.From || f.To > len(b.Text) {
				continue
			}
			matches = append(matches, model.RuleMatch{
				Rule:        "genai-grammar",
				FromPos:     b.From + f.From,
				ToPos:       b.From + f.To,
				MatchedText: f.MatchedText,
				Message:     f.Message,
				MatcherType: m.Type(),
				Replacement: f.Replacement,
			})
		}
	}
	return matches, nil
}

func buildPrompt(text string) string {
	var sb strings.Builder
	sb.WriteString("You are a grammar and style reviewer. Examine the following text and report every issue as a JSON array of objects with fields: from (inclusive character offset), to (inclusive character offset), message, matchedText, and optional replacement (array of suggested fixes). Respond with JSON only, no prose.\n\nText:\n")
	sb.WriteString(text)
	return sb.String()
}

func parseFindings(response string) ([]modelFinding, error) {
	trimmed := strings.TrimSpace(response)
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")
	trimmed = strings.TrimSpace(trimmed)

	if trimmed == "" {
		return nil, nil
	}

	var findings []modelFinding
	if err := json.Unmarshal([]byte(trimmed), &findings); err != nil {
		return nil, err
	}
	return findings, nil
}
