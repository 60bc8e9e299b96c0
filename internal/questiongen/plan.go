// Package questiongen produces quiz questions: a generative model first,
// the embedded question bank when the model cannot deliver.
package questiongen

import (
	"github.com/bilalpiaic/AgenticQuizMaster/internal/model"
)

// Plan is what a question must look like before any content exists.
type Plan struct {
	Category   string
	Difficulty int
	Type       model.QuestionType
}

// IntN returns a value in [0, n). math/rand/v2's rand.IntN satisfies it.
type IntN func(n int) int

// PlanFor maps a 1-based question number onto the quiz's category mix:
// 5 Prompt Engineering, 2 Markdown, 3 Pydantic, then OpenAI Agents SDK.
func PlanFor(number int, intn IntN) Plan {
	between := func(lo, hi int) int { return lo + intn(hi-lo+1) }

	switch {
	case number <= 5:
		return Plan{
			Category:   model.CategoryPromptEngineering,
			Difficulty: between(7, 9),
			Type:       alternate(number%2 == 0),
		}
	case number <= 7:
		return Plan{
			Category:   model.CategoryMarkdown,
			Difficulty: between(6, 7),
			Type:       model.QuestionTypeConceptual,
		}
	case number <= 10:
		return Plan{
			Category:   model.CategoryPydantic,
			Difficulty: between(7, 9),
			Type:       alternate(number%2 == 0),
		}
	default:
		return Plan{
			Category:   model.CategoryAgentsSDK,
			Difficulty: between(7, 10),
			Type:       alternate(number%3 == 0),
		}
	}
}

func alternate(codeBased bool) model.QuestionType {
	if codeBased {
		return model.QuestionTypeCodeBased
	}
	return model.QuestionTypeConceptual
}
