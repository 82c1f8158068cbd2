package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jaekwang-park/listo/internal/app"
	"github.com/jaekwang-park/listo/internal/service"
	"github.com/jaekwang-park/listo/internal/tui"
)

// Builder creates the application for one invocation. interactive is true when the TUI is
// about to take over the terminal. The returned cleanup func is called once the command ends.
type Builder func(ctx context.Context, interactive bool) (*app.App, func(), error)

type state struct {
	build  Builder
	pretty bool
	app    *app.App
}

// load builds the application on first use.
func (s *state) load(cmd *cobra.Command, interactive bool) (*app.App, error) {
	if s.app != nil {
		return s.app, nil
	}
	a, _, err := s.build(cmd.Context(), interactive)
	if err != nil {
		return nil, err
	}
	s.app = a
	return a, nil
}

// Execute runs the command line in args against the application produced by build and
// releases whatever build allocated.
func Execute(ctx context.Context, build Builder, args []string) error {
	var cleanups []func()
	tracked := func(ctx context.Context, interactive bool) (*app.App, func(), error) {
		a, cleanup, err := build(ctx, interactive)
		if cleanup != nil {
			cleanups = append(cleanups, cleanup)
		}
		return a, cleanup, err
	}
	defer func() {
		for _, c := range cleanups {
			c()
		}
	}()

	cmd := NewRootCmd(tracked)
	cmd.SetArgs(args)
	return cmd.ExecuteContext(ctx)
}

func NewRootCmd(build Builder) *cobra.Command {
	s := &state{build: build}

	cmd := &cobra.Command{
		Use:          "listo",
		Short:        "Collaborative checklists in the terminal",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Start the interactive TUI
  listo

  # Scriptable commands
  listo lists ls
  listo items add <checklist-id> "Milk"

  # Local backend for development
  listo mock-server --addr :8080
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return cmd.Help()
			}
			a, err := s.load(cmd, true)
			if err != nil {
				return err
			}
			return tui.Run(cmd.Context(), a)
		},
	}

	cmd.PersistentFlags().BoolVar(&s.pretty, "pretty", false, "Pretty-print JSON output")

	cmd.AddCommand(newLoginCmd(s))
	cmd.AddCommand(newLogoutCmd(s))
	cmd.AddCommand(newSignUpCmd(s))
	cmd.AddCommand(newConfirmCmd(s))
	cmd.AddCommand(newPasswordCmd(s))
	cmd.AddCommand(newWhoamiCmd(s))
	cmd.AddCommand(newListsCmd(s))
	cmd.AddCommand(newItemsCmd(s))
	cmd.AddCommand(newMockServerCmd())

	return cmd
}

func writeOut(cmd *cobra.Command, s *state, v any) error {
	return writeJSON(cmd.OutOrStdout(), v, s.pretty)
}

func writeJSON(w io.Writer, v any, pretty bool) error {
	var b []byte
	var err error
	if pretty {
		b, err = json.MarshalIndent(v, "", "  ")
	} else {
		b, err = json.Marshal(v)
	}
	if err != nil {
		return err
	}
	b = append(b, '\n')
	_, err = w.Write(b)
	return err
}

// explain adds the next step to errors a user can act on.
func explain(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, service.ErrNotAuthenticated):
		return fmt.Errorf("%w (run `listo login`)", err)
	case errors.Is(err, service.ErrLoginUnavailable):
		return fmt.Errorf("%w (set LISTO_AUTH_MODE=bearer and the COGNITO_* settings)", err)
	default:
		return err
	}
}
