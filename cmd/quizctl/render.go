package main

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/bilalpiaic/AgenticQuizMaster/internal/model"
)

var (
	colorPrimary = lipgloss.Color("#8B5CF6")
	colorSuccess = lipgloss.Color("#22C55E")
	colorError   = lipgloss.Color("#F43F5E")
	colorDim     = lipgloss.Color("#94A3B8")

	headerStyle = lipgloss.NewStyle().Foreground(colorPrimary).Bold(true)
	titleStyle  = lipgloss.NewStyle().Bold(true)
	dimStyle    = lipgloss.NewStyle().Foreground(colorDim)
	goodStyle   = lipgloss.NewStyle().Foreground(colorSuccess).Bold(true)
	badStyle    = lipgloss.NewStyle().Foreground(colorError).Bold(true)
	codeStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorDim).
			Padding(0, 1)
)

var optionLabels = []string{"A", "B", "C", "D"}

func renderQuestion(w io.Writer, q *model.PublicQuestion, total int) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("Question %d/%d", q.QuestionNumber, total))+
		dimStyle.Render(fmt.Sprintf("  %s · difficulty %d · %ds", q.Category, q.Difficulty, q.TimeAllotted)))
	fmt.Fprintln(w, titleStyle.Render(q.Title))
	fmt.Fprintln(w, q.Content)
	if q.CodeExample != nil && *q.CodeExample != "" {
		fmt.Fprintln(w, codeStyle.Render(*q.CodeExample))
	}
	for i, opt := range q.Options {
		fmt.Fprintf(w, "  %s) %s\n", optionLabels[i], opt)
	}
	fmt.Fprint(w, dimStyle.Render("Answer [A-D], S to skip: "))
}

func renderFeedback(w io.Writer, res *model.AnswerResult, options []string) {
	switch {
	case res.IsCorrect:
		fmt.Fprintln(w, goodStyle.Render("Correct!"))
	case res.Question != nil && res.Question.UserAnswerIndex != nil && *res.Question.UserAnswerIndex == model.SkippedAnswer:
		fmt.Fprintln(w, badStyle.Render("Skipped."))
	default:
		fmt.Fprintln(w, badStyle.Render("Wrong."))
	}
	if res.CorrectAnswerIndex >= 0 && res.CorrectAnswerIndex < len(options) {
		fmt.Fprintf(w, "Answer: %s) %s\n", optionLabels[res.CorrectAnswerIndex], options[res.CorrectAnswerIndex])
	}
	if res.Explanation != "" {
		fmt.Fprintln(w, dimStyle.Render(res.Explanation))
	}
	if res.Session != nil {
		fmt.Fprintln(w, dimStyle.Render(fmt.Sprintf("Score %d · %s left", res.Session.CorrectAnswers, clock(res.Session.TimeRemaining))))
	}
}

func renderResults(w io.Writer, res *model.Results) {
	stats := res.PerformanceStats
	fmt.Fprintln(w)
	fmt.Fprintln(w, headerStyle.Render("Results"))
	if res.Session != nil {
		fmt.Fprintf(w, "Score: %d/%d (%.1f%%)\n", res.Session.CorrectAnswers, res.Session.TotalQuestions, stats.ScorePercent)
	}
	fmt.Fprintf(w, "Time spent: %s · avg %ds per question\n", clock(stats.TotalTimeSpent), stats.AverageTimePerQuestion)
	fmt.Fprintf(w, "Skipped: %d · avg difficulty %.1f\n", stats.QuestionsSkipped, stats.AverageDifficulty)

	categories := make([]string, 0, len(res.CategoryBreakdown))
	for name := range res.CategoryBreakdown {
		categories = append(categories, name)
	}
	sort.Strings(categories)

	width := 0
	for _, name := range categories {
		width = max(width, len(name))
	}
	for _, name := range categories {
		score := res.CategoryBreakdown[name]
		fmt.Fprintf(w, "  %s%s  %d/%d\n", name, strings.Repeat(" ", width-len(name)), score.Correct, score.Total)
	}
}

// clock formats seconds as m:ss.
func clock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

// parseChoice maps user input to an answer index. ok is false for input
// that is neither an option nor a skip.
func parseChoice(input string) (index int, ok bool) {
	s := strings.ToUpper(strings.TrimSpace(input))
	switch s {
	case "S", "SKIP":
		return model.SkippedAnswer, true
	case "A", "1":
		return 0, true
	case "B", "2":
		return 1, true
	case "C", "3":
		return 2, true
	case "D", "4":
		return 3, true
	}
	return 0, false
}
