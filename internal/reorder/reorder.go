// Package reorder implements drag-to-reorder for a checklist's items, independent of any UI
// toolkit. A Machine moves between Idle, Dragging and Settling; the caller persists the
// changes returned when a drag settles.
package reorder

import (
	"fmt"

	"github.com/jaekwang-park/listo/internal/model"
)

type State int

const (
	Idle State = iota
	Dragging
	Settling
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Dragging:
		return "dragging"
	case Settling:
		return "settling"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Modality is the input device driving a drag.
type Modality int

const (
	// Pointer drags report the row under the pointer through Enter.
	Pointer Modality = iota
	// Touch drags report raw coordinates through Move and show a floating ghost row.
	Touch
)

func (m Modality) String() string {
	if m == Touch {
		return "touch"
	}
	return "pointer"
}

type Point struct {
	X, Y int
}

// Rect is the on-screen box of one row.
type Rect struct {
	Left, Top, Width, Height int
}

// Change is one item whose ordering must be persisted.
type Change struct {
	ItemID   string
	Ordering int
}

// Ghost is the floating copy of the dragged row shown during a touch drag.
type Ghost struct {
	Item     model.Item
	Position Point
}

type Machine struct {
	items  []model.Item
	before []model.Item
	locked bool

	state    State
	modality Modality
	source   int
	offset   Point
	ghost    *Ghost
}

// New returns an idle machine displaying items sorted by ordering.
func New(items []model.Item) *Machine {
	m := &Machine{}
	m.items = sortedCopy(items)
	return m
}

func sortedCopy(items []model.Item) []model.Item {
	out := append([]model.Item(nil), items...)
	model.SortItems(out)
	return out
}

func (m *Machine) State() State {
	return m.state
}

// Items returns the displayed order.
func (m *Machine) Items() []model.Item {
	return append([]model.Item(nil), m.items...)
}

// SetItems replaces the displayed items with a server snapshot. It is refused unless idle.
func (m *Machine) SetItems(items []model.Item) bool {
	if m.state != Idle {
		return false
	}
	m.items = sortedCopy(items)
	return true
}

func (m *Machine) SetLocked(locked bool) {
	m.locked = locked
}

// Source is the current index of the dragged item, or -1 when idle.
func (m *Machine) Source() int {
	if m.state != Dragging {
		return -1
	}
	return m.source
}

// Ghost returns the floating row of a touch drag.
func (m *Machine) Ghost() (Ghost, bool) {
	if m.ghost == nil {
		return Ghost{}, false
	}
	return *m.ghost, true
}

// Start begins dragging the item at index. point is where the drag began and row is the
// dragged row's box, used to keep the ghost anchored where it was grabbed. Starting again
// while dragging re-captures the source index.
func (m *Machine) Start(index int, modality Modality, point Point, row Rect) bool {
	if m.locked || index < 0 || index >= len(m.items) {
		return false
	}
	if m.state == Idle {
		m.before = append([]model.Item(nil), m.items...)
	}
	m.state = Dragging
	m.modality = modality
	m.source = index
	m.ghost = nil
	if modality == Touch {
		m.offset = Point{X: point.X - row.Left, Y: point.Y - row.Top}
		m.ghost = &Ghost{
			Item:     m.items[index],
			Position: Point{X: row.Left, Y: row.Top},
		}
	}
	return true
}

// Enter moves the dragged item to index, as when the pointer enters another row. It reports
// whether the displayed order changed.
func (m *Machine) Enter(index int) bool {
	if m.state != Dragging {
		return false
	}
	return m.moveTo(index)
}

// Move applies the midpoint rule to a raw pointer position. rows holds the box of each
// displayed item in display order. It reports whether the displayed order changed.
func (m *Machine) Move(p Point, rows []Rect) bool {
	if m.state != Dragging {
		return false
	}
	if m.ghost != nil {
		m.ghost.Position = Point{X: p.X - m.offset.X, Y: p.Y - m.offset.Y}
	}
	return m.moveTo(TargetIndex(p.Y, m.source, rows))
}

func (m *Machine) moveTo(target int) bool {
	if target < 0 {
		target = 0
	}
	if target > len(m.items)-1 {
		target = len(m.items) - 1
	}
	if target == m.source {
		return false
	}
	m.items = Splice(m.items, m.source, target)
	m.source = target
	return true
}

// End settles the drag: the displayed order becomes final and the items whose ordering
// differs from their index are returned. The machine is idle again on return.
func (m *Machine) End() []Change {
	if m.state != Dragging {
		return nil
	}
	m.state = Settling
	changes := Diff(m.items)
	for i := range m.items {
		m.items[i].Ordering = i
	}
	m.reset()
	return changes
}

// Cancel abandons the drag and restores the order it started from.
func (m *Machine) Cancel() {
	if m.state != Dragging {
		return
	}
	m.items = m.before
	m.reset()
}

func (m *Machine) reset() {
	m.state = Idle
	m.before = nil
	m.source = -1
	m.ghost = nil
	m.offset = Point{}
}
