package questiongen

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/bilalpiaic/AgenticQuizMaster/internal/llm"
	"github.com/santhosh-tekuri/jsonschema/v6"
)

//go:embed fallback_bank.json
var defaultBank []byte

// difficultyTolerance is how far a bank question's difficulty may sit from
// the plan and still count as a match.
const difficultyTolerance = 3

// Bank is the static list of pre-written questions.
type Bank struct {
	questions []Draft
}

// DefaultBank loads the embedded question bank.
func DefaultBank() (*Bank, error) {
	return LoadBank(defaultBank)
}

// LoadBank parses and validates a JSON array of questions.
func LoadBank(raw []byte) (*Bank, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parse question bank: %w", err)
	}
	compiled, err := llm.CompileSchema(bankSchema)
	if err != nil {
		return nil, err
	}
	if err := compiled.Validate(doc); err != nil {
		return nil, fmt.Errorf("question bank: %w", err)
	}

	var questions []Draft
	if err := json.Unmarshal(raw, &questions); err != nil {
		return nil, fmt.Errorf("decode question bank: %w", err)
	}
	for i := range questions {
		if err := questions[i].Validate(); err != nil {
			return nil, fmt.Errorf("question bank entry %d (%q): %w", i, questions[i].Title, err)
		}
	}
	return &Bank{questions: questions}, nil
}

// Len returns the number of questions in the bank.
func (b *Bank) Len() int {
	return len(b.questions)
}

// Select picks a question for plan p. It narrows by category, difficulty
// within tolerance and type; failing that by category alone; failing that
// it uses the whole bank. The pick is number modulo the candidate count,
// so a given slot always maps to the same question.
func (b *Bank) Select(p Plan, number int) Draft {
	candidates := b.filter(func(d *Draft) bool {
		return d.Category == p.Category && abs(d.Difficulty-p.Difficulty) <= difficultyTolerance && d.Type == p.Type
	})
	if len(candidates) == 0 {
		candidates = b.filter(func(d *Draft) bool { return d.Category == p.Category })
	}
	if len(candidates) == 0 {
		candidates = b.questions
	}

	idx := number % len(candidates)
	if idx < 0 {
		idx += len(candidates)
	}
	d := candidates[idx]
	d.Options = append([]string(nil), d.Options...)
	return d
}

func (b *Bank) filter(keep func(*Draft) bool) []Draft {
	var out []Draft
	for i := range b.questions {
		if keep(&b.questions[i]) {
			out = append(out, b.questions[i])
		}
	}
	return out
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
