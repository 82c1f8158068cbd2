package cli

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"sync"

	"github.com/spf13/cobra"

	"github.com/jaekwang-park/listo/internal/model"
	"github.com/jaekwang-park/listo/internal/reorder"
	"github.com/jaekwang-park/listo/internal/service"
)

type itemsOutput struct {
	Checklist model.Checklist `json:"checklist"`
	Items     []model.Item    `json:"items"`
	Deleted   *int            `json:"deleted,omitempty"`
}

// editItems opens an editor on the checklist, applies fn and waits until every write fn
// started has landed. Failures of background writes are returned too.
func editItems(cmd *cobra.Command, s *state, checklistID string, shared bool, fn func(e *service.Editor) error) error {
	a, err := s.load(cmd, false)
	if err != nil {
		return err
	}

	var mu sync.Mutex
	var background []error
	e := a.NewEditor(checklistID, shared, nil, func(err error) {
		mu.Lock()
		background = append(background, err)
		mu.Unlock()
	})

	ctx := cmd.Context()
	if err := e.Load(ctx); err != nil {
		return explain(err)
	}
	fnErr := fn(e)
	if err := e.Close(ctx); err != nil {
		return err
	}
	mu.Lock()
	defer mu.Unlock()
	if err := errors.Join(append([]error{fnErr}, background...)...); err != nil {
		return explain(err)
	}
	return nil
}

func writeItems(cmd *cobra.Command, s *state, e *service.Editor, deleted *int) error {
	snap := e.Snapshot()
	return writeOut(cmd, s, itemsOutput{Checklist: snap.Checklist, Items: snap.Items, Deleted: deleted})
}

func findIndex(e *service.Editor, itemID string) (int, model.Item, error) {
	items := e.Items()
	i := slices.IndexFunc(items, func(it model.Item) bool { return it.ID == itemID })
	if i < 0 {
		return -1, model.Item{}, fmt.Errorf("%w: item %s", service.ErrNotFound, itemID)
	}
	return i, items[i], nil
}

func newItemsCmd(s *state) *cobra.Command {
	var shared bool
	cmd := &cobra.Command{
		Use:   "items",
		Short: "Edit the items of a checklist",
	}
	cmd.PersistentFlags().BoolVar(&shared, "shared", false, "The checklist was shared with you")

	// run wraps an editor operation into a RunE that prints the resulting items.
	run := func(fn func(cmd *cobra.Command, e *service.Editor, args []string) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			var out *service.Editor
			err := editItems(cmd, s, args[0], shared, func(e *service.Editor) error {
				out = e
				return fn(cmd, e, args[1:])
			})
			if err != nil {
				return err
			}
			return writeItems(cmd, s, out, nil)
		}
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "add <checklist-id> <content>",
		Short: "Append an item",
		Args:  cobra.ExactArgs(2),
		RunE: run(func(cmd *cobra.Command, e *service.Editor, args []string) error {
			_, err := e.AddItem(cmd.Context(), args[0])
			return err
		}),
	})

	setChecked := func(want bool) func(cmd *cobra.Command, e *service.Editor, args []string) error {
		return func(cmd *cobra.Command, e *service.Editor, args []string) error {
			_, it, err := findIndex(e, args[0])
			if err != nil {
				return err
			}
			if it.Checked == want {
				return nil
			}
			return e.ToggleItem(cmd.Context(), it.ID)
		}
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "check <checklist-id> <item-id>",
		Short: "Check an item",
		Args:  cobra.ExactArgs(2),
		RunE:  run(setChecked(true)),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "uncheck <checklist-id> <item-id>",
		Short: "Uncheck an item",
		Args:  cobra.ExactArgs(2),
		RunE:  run(setChecked(false)),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "edit <checklist-id> <item-id> <content>",
		Short: "Replace the content of an item",
		Args:  cobra.ExactArgs(3),
		RunE: run(func(cmd *cobra.Command, e *service.Editor, args []string) error {
			return e.EditItem(args[0], args[1])
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "move <checklist-id> <item-id> <position>",
		Short: "Move an item to a zero-based position",
		Args:  cobra.ExactArgs(3),
		RunE: run(func(cmd *cobra.Command, e *service.Editor, args []string) error {
			from, _, err := findIndex(e, args[0])
			if err != nil {
				return err
			}
			to, err := strconv.Atoi(args[1])
			if err != nil || to < 0 || to >= len(e.Items()) {
				return fmt.Errorf("%w: position must be between 0 and %d", service.ErrInvalidInput, len(e.Items())-1)
			}
			if err := e.BeginDrag(from, reorder.Pointer, reorder.Point{}, reorder.Rect{}); err != nil {
				return err
			}
			e.DragEnter(to)
			e.EndDrag()
			return nil
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:     "rm <checklist-id> <item-id>",
		Aliases: []string{"delete"},
		Short:   "Delete an item",
		Args:    cobra.ExactArgs(2),
		RunE: run(func(cmd *cobra.Command, e *service.Editor, args []string) error {
			return e.DeleteItem(cmd.Context(), args[0])
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "check-all <checklist-id>",
		Short: "Check every item",
		Args:  cobra.ExactArgs(1),
		RunE: run(func(cmd *cobra.Command, e *service.Editor, args []string) error {
			return e.ToggleAll(cmd.Context(), true)
		}),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "uncheck-all <checklist-id>",
		Short: "Uncheck every item",
		Args:  cobra.ExactArgs(1),
		RunE: run(func(cmd *cobra.Command, e *service.Editor, args []string) error {
			return e.ToggleAll(cmd.Context(), false)
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "clear <checklist-id>",
		Short: "Delete all checked items",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var out *service.Editor
			var n int
			err := editItems(cmd, s, args[0], shared, func(e *service.Editor) error {
				out = e
				var err error
				n, err = e.DeleteCompleted(cmd.Context())
				return err
			})
			if err != nil {
				return err
			}
			return writeItems(cmd, s, out, &n)
		},
	})

	return cmd
}
