package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"github.com/jaekwang-park/listo/internal/model"
	"github.com/jaekwang-park/listo/internal/service"
)

func newListsCmd(s *state) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "lists",
		Aliases: []string{"list", "checklists"},
		Short:   "Manage checklists",
	}

	cmd.AddCommand(
		newListsLsCmd(s),
		newListsSharedCmd(s),
		newListsCreateCmd(s),
		newListsShowCmd(s),
		newListsRenameCmd(s),
		newListsLockCmd(s, true),
		newListsLockCmd(s, false),
		newListsDeleteCmd(s),
		newListsShareCmd(s),
		newListsJoinCmd(s),
		newListsLeaveCmd(s),
		newListsFindCmd(s),
	)
	return cmd
}

func newListsLsCmd(s *state) *cobra.Command {
	return &cobra.Command{
		Use:   "ls",
		Short: "List your own checklists, most recently updated first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := s.load(cmd, false)
			if err != nil {
				return err
			}
			lists, err := a.Checklists.List(cmd.Context())
			if err != nil {
				return explain(err)
			}
			return writeOut(cmd, s, lists)
		},
	}
}

func newListsSharedCmd(s *state) *cobra.Command {
	return &cobra.Command{
		Use:   "shared",
		Short: "List checklists shared with you",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := s.load(cmd, false)
			if err != nil {
				return err
			}
			lists, err := a.Checklists.ListShared(cmd.Context())
			if err != nil {
				return explain(err)
			}
			return writeOut(cmd, s, lists)
		},
	}
}

func newListsCreateCmd(s *state) *cobra.Command {
	return &cobra.Command{
		Use:   "create [title]",
		Short: fmt.Sprintf("Create a checklist (default title %q)", model.DefaultChecklistTitle),
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := s.load(cmd, false)
			if err != nil {
				return err
			}
			cl, err := a.Checklists.Create(cmd.Context(), strings.Join(args, ""))
			if err != nil {
				return explain(err)
			}
			return writeOut(cmd, s, cl)
		},
	}
}

func newListsShowCmd(s *state) *cobra.Command {
	var shared bool
	cmd := &cobra.Command{
		Use:   "show <checklist-id>",
		Short: "Show a checklist with its items",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := s.load(cmd, false)
			if err != nil {
				return err
			}
			detail, err := a.Checklists.Get(cmd.Context(), args[0], shared)
			if err != nil {
				return explain(err)
			}
			return writeOut(cmd, s, detail)
		},
	}
	cmd.Flags().BoolVar(&shared, "shared", false, "The checklist was shared with you")
	return cmd
}

func newListsRenameCmd(s *state) *cobra.Command {
	var shared bool
	cmd := &cobra.Command{
		Use:   "rename <checklist-id> <title>",
		Short: "Change the title of an unlocked checklist",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := s.load(cmd, false)
			if err != nil {
				return err
			}
			cl, err := a.Checklists.Rename(cmd.Context(), args[0], shared, args[1])
			if err != nil {
				return explain(err)
			}
			return writeOut(cmd, s, cl)
		},
	}
	cmd.Flags().BoolVar(&shared, "shared", false, "The checklist was shared with you")
	return cmd
}

func newListsLockCmd(s *state, locked bool) *cobra.Command {
	use, short := "lock", "Lock a checklist against edits"
	if !locked {
		use, short = "unlock", "Allow edits to a locked checklist again"
	}
	var shared bool
	cmd := &cobra.Command{
		Use:   use + " <checklist-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := s.load(cmd, false)
			if err != nil {
				return err
			}
			cl, err := a.Checklists.SetLocked(cmd.Context(), args[0], shared, locked)
			if err != nil {
				return explain(err)
			}
			return writeOut(cmd, s, cl)
		},
	}
	cmd.Flags().BoolVar(&shared, "shared", false, "The checklist was shared with you")
	return cmd
}

func newListsDeleteCmd(s *state) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <checklist-id>",
		Aliases: []string{"rm"},
		Short:   "Delete one of your checklists",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := s.load(cmd, false)
			if err != nil {
				return err
			}
			if err := a.Checklists.Delete(cmd.Context(), args[0]); err != nil {
				return explain(err)
			}
			return writeOut(cmd, s, map[string]string{"deleted": args[0]})
		},
	}
}

type shareOutput struct {
	Code   string `json:"code"`
	Link   string `json:"link"`
	Copied bool   `json:"copied"`
}

func newListsShareCmd(s *state) *cobra.Command {
	var copyLink bool
	cmd := &cobra.Command{
		Use:   "share <checklist-id>",
		Short: "Print the link collaborators use to join",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := s.load(cmd, false)
			if err != nil {
				return err
			}
			code, err := a.Checklists.ShareCode(cmd.Context(), args[0])
			if err != nil {
				return explain(err)
			}
			out := shareOutput{Code: code, Link: a.Checklists.LinkFor(code)}
			if copyLink {
				if err := clipboard.WriteAll(out.Link); err != nil {
					a.Logger.Warn("failed to copy share link", "error", err)
				} else {
					out.Copied = true
				}
			}
			return writeOut(cmd, s, out)
		},
	}
	cmd.Flags().BoolVar(&copyLink, "copy", false, "Copy the link to the clipboard")
	return cmd
}

type joinOutput struct {
	Joined  string `json:"joined,omitempty"`
	Pending string `json:"pending,omitempty"`
}

func newListsJoinCmd(s *state) *cobra.Command {
	return &cobra.Command{
		Use:   "join <code-or-link>",
		Short: "Join a checklist someone shared with you",
		Long: "Join a checklist by share code or link. When you are not logged in the code is " +
			"kept and redeemed by the next `listo login`.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := s.load(cmd, false)
			if err != nil {
				return err
			}
			code, err := a.Checklists.Join(cmd.Context(), args[0])
			if errors.Is(err, service.ErrNotAuthenticated) && !a.DevMode() {
				pending, rerr := a.Auth.RememberShareCode(args[0])
				if rerr != nil {
					return rerr
				}
				return writeOut(cmd, s, joinOutput{Pending: pending})
			}
			if err != nil {
				return explain(err)
			}
			return writeOut(cmd, s, joinOutput{Joined: code})
		},
	}
}

func newListsLeaveCmd(s *state) *cobra.Command {
	return &cobra.Command{
		Use:   "leave <checklist-id>",
		Short: "Stop collaborating on a shared checklist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := s.load(cmd, false)
			if err != nil {
				return err
			}
			if err := a.Checklists.Leave(cmd.Context(), args[0]); err != nil {
				return explain(err)
			}
			return writeOut(cmd, s, map[string]string{"left": args[0]})
		},
	}
}

func newListsFindCmd(s *state) *cobra.Command {
	return &cobra.Command{
		Use:   "find <query>",
		Short: "Fuzzy-search own and shared checklists by title",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := s.load(cmd, false)
			if err != nil {
				return err
			}
			matches, err := a.Checklists.Find(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return explain(err)
			}
			return writeOut(cmd, s, matches)
		},
	}
}
