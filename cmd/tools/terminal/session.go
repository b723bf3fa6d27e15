package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"

	"github.com/zhouzirui/mindcheck/backend/internal/model/chat"
	"github.com/zhouzirui/mindcheck/backend/internal/service/questionnaire"
)

// PipelineFailedError reports that the closing analysis could not finish.
type PipelineFailedError struct {
	Err error
}

func (e *PipelineFailedError) Error() string {
	return fmt.Sprintf("analysis failed: %v", e.Err)
}

func (e *PipelineFailedError) Unwrap() error {
	return e.Err
}

// asker reads one line of input that passes validate.
type asker func(title string, validate func(string) error) (string, error)

func newFormAsker(in io.Reader, out io.Writer) asker {
	return func(title string, validate func(string) error) (string, error) {
		var value string
		form := huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title(title).
					Value(&value).
					Validate(validate),
			),
		).WithInput(in).WithOutput(out)

		if f, ok := in.(*os.File); !ok || !term.IsTerminal(int(f.Fd())) {
			form = form.WithAccessible(true)
		}

		if err := form.Run(); err != nil {
			return "", err
		}
		return value, nil
	}
}

// runSession drives one questionnaire session, printing transcript entries as
// they appear.
func runSession(ctx context.Context, svc *questionnaire.Service, ask asker, out io.Writer, handle string) error {
	if strings.TrimSpace(handle) == "" {
		var err error
		handle, err = ask("Enter your Twitter username", func(s string) error {
			if strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "@")) == "" {
				return errors.New("please enter a username")
			}
			return nil
		})
		if err != nil {
			return err
		}
	}

	session, err := svc.Start(ctx, handle)
	if err != nil {
		return err
	}
	printed := printEntries(out, session.Messages, 0)

	questions := svc.Questions()
	for session.Status == chat.StatusQuestioning && session.Index < len(questions) {
		q := questions[session.Index]
		answer, err := ask(q.Prompt, func(s string) error {
			if !q.Validate(s) {
				return errors.New(q.ErrorMessage)
			}
			return nil
		})
		if err != nil {
			return err
		}

		session, err = svc.Submit(ctx, session.ID, answer)
		printed = printEntries(out, session.Messages, printed)
		if err != nil {
			var callErr *questionnaire.ExternalCallError
			if errors.As(err, &callErr) {
				return &PipelineFailedError{Err: callErr}
			}
			var validationErr *questionnaire.ValidationError
			if errors.As(err, &validationErr) {
				continue
			}
			return err
		}
	}
	return nil
}

// printEntries writes entries[from:] and returns the new count. A transcript
// shorter than from prints nothing and keeps the count.
func printEntries(out io.Writer, entries []chat.Message, from int) int {
	if from >= len(entries) {
		return from
	}
	for _, entry := range entries[from:] {
		switch {
		case entry.Origin == chat.OriginUser:
			fmt.Fprintf(out, "> %s\n", entry.Content)
		case entry.Card != nil:
			fmt.Fprintf(out, "\n%s\n\n", entry.Content)
		default:
			fmt.Fprintln(out, entry.Content)
		}
	}
	return len(entries)
}
