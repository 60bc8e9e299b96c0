package questiongen

import (
	"fmt"
	"strings"

	"github.com/bilalpiaic/AgenticQuizMaster/internal/model"
)

var categoryFocus = map[string][]string{
	model.CategoryAgentsSDK: {
		"Advanced OpenAI Agents SDK concepts including:",
		"Multi-agent architecture and collaboration patterns",
		"Context management and state handling",
		"Error handling and debugging strategies",
		"Advanced primitives and their implementation",
		"Production deployment considerations",
		"Performance optimization and scaling",
	},
	model.CategoryPromptEngineering: {
		"Advanced prompt engineering techniques including:",
		"Complex prompt design patterns",
		"Chain-of-thought and reasoning strategies",
		"Few-shot and zero-shot learning optimization",
		"Prompt injection prevention and security",
		"Context window management",
		"Advanced prompt debugging techniques",
	},
	model.CategoryPydantic: {
		"Pydantic library advanced usage including:",
		"Complex data validation scenarios",
		"Custom validators and field types",
		"Model inheritance and composition",
		"Configuration and settings management",
		"Integration with FastAPI and other frameworks",
		"Performance optimization techniques",
	},
	model.CategoryMarkdown: {
		"Advanced Markdown usage including:",
		"Extended syntax and advanced formatting",
		"Documentation best practices",
		"Integration with development workflows",
		"Advanced table and list structures",
		"Mathematical notation and code highlighting",
		"Cross-platform compatibility considerations",
	},
}

func focusFor(category string) string {
	lines, ok := categoryFocus[category]
	if !ok {
		return "General Agentic AI concepts and best practices"
	}
	var b strings.Builder
	b.WriteString(lines[0])
	for _, l := range lines[1:] {
		b.WriteString("\n- ")
		b.WriteString(l)
	}
	return b.String()
}

// SystemPrompt sets the model's role and the constraints of the plan.
func SystemPrompt(p Plan) string {
	return fmt.Sprintf(`You are an expert AI assessment generator for an Agentic AI course focusing on OpenAI Agents SDK, Prompt Engineering, Markdown, and Pydantic.

Generate questions with difficulty level 70/100 (advanced level) that test deep understanding and practical application.

Question Requirements:
- Difficulty: %d/10 (corresponding to 70/100 overall difficulty)
- Type: %s
- Category: %s
- Professional and technically accurate
- Test real-world application scenarios
- Include nuanced understanding requirements

Time Allocation Guidelines:
- OpenAI Agents SDK: 120-180 seconds (complex topics)
- Prompt Engineering: 90-150 seconds
- Pydantic: 90-120 seconds
- Markdown: 60-90 seconds

For code-based questions, include realistic code examples in codeExample that demonstrate practical usage patterns.
For conceptual questions, focus on architectural decisions, best practices, and advanced concepts.

Always provide 4 options with exactly one correct answer and detailed explanations.`,
		p.Difficulty, p.Type, p.Category)
}

// UserPrompt asks for question number of total under plan p.
func UserPrompt(p Plan, number, total int) string {
	return fmt.Sprintf(`Generate a %s question for %s (Question %d/%d).

Category Focus: %s

The question should:
1. Test advanced understanding suitable for difficulty level %d/10
2. Be relevant to real-world Agentic AI development
3. Require critical thinking and detailed knowledge
4. Include practical scenarios or code examples if applicable

Provide exactly 4 answer options and ensure the explanation demonstrates why the correct answer is optimal and why other options are incorrect.`,
		p.Type, p.Category, number, total, focusFor(p.Category), p.Difficulty)
}
