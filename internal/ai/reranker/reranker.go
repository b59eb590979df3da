package reranker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/Abraxas-365/hireflow/internal/ai/llm"
	"github.com/Abraxas-365/hireflow/pkg/logx"
)

const (
	MaxReasons = 3
	// maxItemChars bounds the description of one item in the prompt.
	maxItemChars = 1200
)

// Item is one entity to be judged against the subject.
type Item struct {
	ID          string
	Description string
	// Baseline is the score the item keeps when the model cannot judge it.
	Baseline float64
}

// Judgement is the model's verdict for one item. Score is in [0,1].
type Judgement struct {
	ID      string
	Score   float64
	Reasons []string
}

// Outcome holds the verdicts the model produced. Items missing from
// Judgements were rejected and keep their baseline.
type Outcome struct {
	Judgements map[string]Judgement
	Rejected   int
}

// Reranker scores a pool of items against one subject in a single prompt.
type Reranker struct {
	client llm.Client
}

func New(client llm.Client) *Reranker {
	return &Reranker{client: client}
}

var responseSchema = map[string]any{
	"type":     "object",
	"required": []any{"results"},
	"properties": map[string]any{
		"results": map[string]any{"type": "array"},
	},
}

var itemSchema = map[string]any{
	"type":     "object",
	"required": []any{"id", "score", "reasons"},
	"properties": map[string]any{
		"id":    map[string]any{"type": []any{"string", "integer"}},
		"score": map[string]any{"type": "number", "minimum": 0, "maximum": 100},
		"reasons": map[string]any{
			"type":     "array",
			"minItems": 1,
			"maxItems": MaxReasons,
			"items":    map[string]any{"type": "string", "minLength": 1},
		},
	},
}

const systemPrompt = `You are an expert technical recruiter. You compare profiles objectively using skills, experience and education. Respond ONLY with a valid JSON object.`

const promptTemplate = `%s

Score each of the following %s from 0 to 100 for how well it fits, and give 1 to 3 short reasons.

%s

Return JSON exactly in this shape:
{"results": [{"id": "<id>", "score": <0-100>, "reasons": ["<reason>", "..."]}]}
Include every id once.`

type rawJudgement struct {
	ID      string   `json:"id"`
	Score   float64  `json:"score"`
	Reasons []string `json:"reasons"`
}

// Rerank sends subject and items in one prompt. A transport failure or an
// unparseable response is returned as an error. Invalid individual entries
// are dropped and counted in Outcome.Rejected.
func (r *Reranker) Rerank(ctx context.Context, subject, itemKind string, items []Item) (Outcome, error) {
	out := Outcome{Judgements: make(map[string]Judgement, len(items))}
	if len(items) == 0 {
		return out, nil
	}

	raw, err := r.client.Complete(ctx, llm.Request{
		System:      systemPrompt,
		Prompt:      buildPrompt(subject, itemKind, items),
		JSON:        true,
		MaxTokens:   300 + 120*len(items),
		Temperature: 0.2,
	})
	if err != nil {
		return out, fmt.Errorf("rerank call: %w", err)
	}

	body := []byte(llm.ExtractJSON(raw))
	var decoded any
	if err := json.Unmarshal(body, &decoded); err != nil {
		return out, fmt.Errorf("%w: %v", llm.ErrMalformedOutput, err)
	}
	if err := llm.Validate(responseSchema, decoded); err != nil {
		return out, err
	}
	var envelope struct {
		Results []json.RawMessage `json:"results"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return out, fmt.Errorf("%w: %v", llm.ErrMalformedOutput, err)
	}

	known := make(map[string]struct{}, len(items))
	for _, it := range items {
		known[it.ID] = struct{}{}
	}

	for _, entry := range envelope.Results {
		j, err := decodeJudgement(entry)
		if err != nil {
			out.Rejected++
			logx.Debugf("rerank entry rejected: %v", err)
			continue
		}
		if _, ok := known[j.ID]; !ok {
			out.Rejected++
			logx.Debugf("rerank entry for unknown id %q", j.ID)
			continue
		}
		if _, dup := out.Judgements[j.ID]; dup {
			continue
		}
		out.Judgements[j.ID] = j
	}

	if missing := len(items) - len(out.Judgements); missing > 0 {
		logx.Warnf("rerank: %d of %d items kept their baseline score", missing, len(items))
	}
	return out, nil
}

func decodeJudgement(entry json.RawMessage) (Judgement, error) {
	var rj rawJudgement
	if err := llm.DecodeJSON(string(entry), itemSchema, &rj); err != nil {
		return Judgement{}, err
	}

	reasons := make([]string, 0, len(rj.Reasons))
	for _, reason := range rj.Reasons {
		if reason = strings.TrimSpace(reason); reason != "" {
			reasons = append(reasons, reason)
		}
	}
	if len(reasons) == 0 {
		return Judgement{}, errors.New("no usable reasons")
	}

	return Judgement{
		ID:      strings.TrimSpace(rj.ID),
		Score:   rj.Score / 100,
		Reasons: reasons,
	}, nil
}

func buildPrompt(subject, itemKind string, items []Item) string {
	var b strings.Builder
	for i, it := range items {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "[id: %s]\n%s\n", it.ID, truncate(it.Description, maxItemChars))
	}
	return fmt.Sprintf(promptTemplate, subject, itemKind, b.String())
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
