package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/cockroachdb/errors"
	"github.com/effective-security/xlog"
	"github.com/germanamz/toolmesh/pkg/session"
	"github.com/spf13/cobra"
)

var logger = xlog.NewPackageLogger("github.com/germanamz/toolmesh/cmd", "toolmesh")

type askOptions struct {
	interactive bool
	render      bool
}

func newAskCmd(root *rootOptions) *cobra.Command {
	opts := &askOptions{}

	cmd := &cobra.Command{
		Use:   "ask [question...]",
		Short: "Answer questions with the model and the configured tools",
		Long: `Answer each question in its own session. Without arguments the
questions from the configuration are asked.

Examples:
  toolmesh ask
  toolmesh ask "What's 60 / 5?" "Any weather alerts in CA?"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			questions := args
			if opts.interactive {
				q, err := promptQuestion()
				if err != nil {
					return err
				}
				questions = []string{q}
			}
			if len(questions) == 0 {
				questions = root.cfg.Questions
			}

			e, err := root.engine()
			if err != nil {
				return err
			}

			events := session.NewEventBus()
			sub := events.Subscribe(64)
			defer events.Unsubscribe(sub)
			go traceEvents(sub)

			runner, err := e.Runner(events)
			if err != nil {
				return err
			}

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			return askAll(ctx, runner, questions, cmd.OutOrStdout(), opts.render)
		},
	}

	cmd.Flags().BoolVarP(&opts.interactive, "interactive", "i", false, "prompt for the question")
	cmd.Flags().BoolVar(&opts.render, "render", false, "render answers as markdown")

	return cmd
}

// asker is the part of session.Runner used by askAll.
type asker interface {
	AskAll(ctx context.Context, questions []string) []session.Outcome
}

// askAll prints one block per question. Failed sessions still print their
// fixed message; the command itself only fails on setup errors.
func askAll(ctx context.Context, r asker, questions []string, w io.Writer, render bool) error {
	for _, out := range r.AskAll(ctx, questions) {
		answer := out.Answer
		if render && out.Err == nil {
			answer = strings.TrimSpace(renderMarkdown(answer))
		}

		if _, err := fmt.Fprintf(w, "%s\n%s\n\n", questionStyle.Render("Q: "+out.Question), answer); err != nil {
			return err
		}
	}

	return nil
}

func promptQuestion() (string, error) {
	var q string

	err := huh.NewInput().
		Title("Question").
		Placeholder("What's (3 + 5) x 12?").
		Validate(func(s string) error {
			if strings.TrimSpace(s) == "" {
				return errors.New("question is required")
			}
			return nil
		}).
		Value(&q).
		Run()
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(q), nil
}

func traceEvents(sub *session.Subscription) {
	for e := range sub.C {
		logger.KV(xlog.DEBUG, "session", e.SessionID, "event", e.Kind, "state", e.State, "data", e.Data)
	}
}
