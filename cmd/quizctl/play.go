package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/bilalpiaic/AgenticQuizMaster/internal/client"
	"github.com/bilalpiaic/AgenticQuizMaster/internal/model"
	"github.com/bilalpiaic/AgenticQuizMaster/internal/response"
	"github.com/bilalpiaic/AgenticQuizMaster/internal/timer"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Start a quiz session",
	RunE: func(cmd *cobra.Command, args []string) error {
		api, log := setup(cmd)
		syncEvery, _ := cmd.Flags().GetDuration("sync-every")

		apiKey, err := readAPIKey(cmd.ErrOrStderr())
		if err != nil {
			return err
		}

		p := &player{
			api:       api,
			log:       log,
			out:       cmd.OutOrStdout(),
			lines:     readLines(cmd.InOrStdin()),
			syncEvery: syncEvery,
		}
		return p.play(cmd.Context(), apiKey)
	},
}

func init() {
	playCmd.Flags().Duration("sync-every", 30*time.Second, "How often the remaining time is saved on the server")
}

// readAPIKey takes QUIZ_API_KEY from the environment or prompts for it
// without echo.
func readAPIKey(prompt io.Writer) (string, error) {
	if key := strings.TrimSpace(os.Getenv("QUIZ_API_KEY")); key != "" {
		return key, nil
	}
	fmt.Fprint(prompt, "Enter your API key: ")
	raw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(prompt)
	if err != nil {
		return "", fmt.Errorf("read API key: %w", err)
	}
	key := strings.TrimSpace(string(raw))
	if key == "" {
		return "", errors.New("an API key is required")
	}
	return key, nil
}

// readLines forwards stdin lines until EOF.
func readLines(in io.Reader) <-chan string {
	ch := make(chan string)
	go func() {
		defer close(ch)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			ch <- sc.Text()
		}
	}()
	return ch
}

type player struct {
	api       *client.Client
	log       zerolog.Logger
	out       io.Writer
	lines     <-chan string
	syncEvery time.Duration
}

func (p *player) play(ctx context.Context, apiKey string) error {
	sess, err := p.api.CreateSession(ctx, apiKey)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	p.log.Info().Int("session_id", sess.ID).Msg("Session created")
	fmt.Fprintf(p.out, "Session %d: %d questions, %s on the clock.\n",
		sess.ID, sess.TotalQuestions, clock(sess.TimeRemaining))

	questionUp := make(chan struct{}, 1)
	totalUp := make(chan struct{}, 1)
	tm := timer.New(sess.TimeRemaining,
		timer.OnQuestionTimeUp(func() { notify(questionUp) }),
		timer.OnTotalTimeUp(func() { notify(totalUp) }),
	)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	syncTicks := max(int(p.syncEvery/time.Second), 1)
	go func() {
		ticks := 0
		_ = tm.Run(runCtx, time.Second, func(snap timer.Snapshot) {
			ticks++
			if ticks%syncTicks == 0 {
				p.saveTime(runCtx, sess.ID, snap.TotalRemaining)
			}
		})
	}()

	for !sess.IsCompleted {
		q, err := p.api.NextQuestion(ctx, sess.ID)
		if err != nil {
			p.finish(sess.ID, tm)
			return fmt.Errorf("next question: %w", err)
		}
		renderQuestion(p.out, q, sess.TotalQuestions)

		drain(questionUp)
		tm.StartQuestion(q.TimeAllotted)

		answer, timeUp, err := p.awaitAnswer(ctx, questionUp, totalUp)
		tm.Stop()
		if err != nil {
			p.finish(sess.ID, tm)
			return err
		}
		if timeUp {
			fmt.Fprintln(p.out)
			fmt.Fprintln(p.out, badStyle.Render("Quiz time is up."))
			break
		}

		res, err := p.api.SubmitAnswer(ctx, q.ID, answer, tm.Snapshot().QuestionElapsed)
		if err != nil {
			p.finish(sess.ID, tm)
			return fmt.Errorf("submit answer: %w", err)
		}
		renderFeedback(p.out, res, q.Options)
		sess = res.Session
	}

	p.finish(sess.ID, tm)
	res, err := p.api.GetResults(ctx, sess.ID)
	if err != nil {
		return fmt.Errorf("results: %w", err)
	}
	renderResults(p.out, res)
	return nil
}

// awaitAnswer blocks until the user picks an option, the question runs out
// (a skip), or the quiz runs out (timeUp).
func (p *player) awaitAnswer(ctx context.Context, questionUp, totalUp <-chan struct{}) (answer int, timeUp bool, err error) {
	for {
		select {
		case <-ctx.Done():
			return 0, false, ctx.Err()
		case <-totalUp:
			return 0, true, nil
		case <-questionUp:
			fmt.Fprintln(p.out)
			fmt.Fprintln(p.out, badStyle.Render("Time's up for this question."))
			return model.SkippedAnswer, false, nil
		case line, ok := <-p.lines:
			if !ok {
				return 0, false, errors.New("input closed")
			}
			if idx, valid := parseChoice(line); valid {
				return idx, false, nil
			}
			fmt.Fprint(p.out, dimStyle.Render("Please enter A, B, C, D or S: "))
		}
	}
}

// finish stops the clock and saves the final remaining time.
func (p *player) finish(sessionID int, tm *timer.Timer) {
	tm.Stop()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p.saveTime(ctx, sessionID, tm.Snapshot().TotalRemaining)
}

func (p *player) saveTime(ctx context.Context, sessionID, remaining int) {
	if _, err := p.api.UpdateTime(ctx, sessionID, remaining); err != nil {
		var apiErr *client.APIError
		if errors.As(err, &apiErr) && apiErr.Code == string(response.ErrSessionCompleted) {
			return
		}
		p.log.Warn().Err(err).Int("session_id", sessionID).Msg("Save time failed")
	}
}

func notify(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}

func drain(ch chan struct{}) {
	select {
	case <-ch:
	default:
	}
}
