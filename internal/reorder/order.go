package reorder

import "github.com/jaekwang-park/listo/internal/model"

// Splice returns a copy of items with the element at from removed and re-inserted at to.
func Splice(items []model.Item, from, to int) []model.Item {
	out := make([]model.Item, 0, len(items))
	if from < 0 || from >= len(items) {
		return append(out, items...)
	}
	moved := items[from]
	rest := make([]model.Item, 0, len(items)-1)
	rest = append(rest, items[:from]...)
	rest = append(rest, items[from+1:]...)
	if to < 0 {
		to = 0
	}
	if to > len(rest) {
		to = len(rest)
	}
	out = append(out, rest[:to]...)
	out = append(out, moved)
	out = append(out, rest[to:]...)
	return out
}

// Diff lists the items whose persisted ordering differs from their index.
func Diff(items []model.Item) []Change {
	var changes []Change
	for i, it := range items {
		if it.Ordering != i {
			changes = append(changes, Change{ItemID: it.ID, Ordering: i})
		}
	}
	return changes
}

// TargetIndex maps a pointer's y to the index the dragged item (currently at source) should
// move to. Above a row's vertical midpoint means before that row, at or below means after.
// Pointers above every row target 0 and below every row target the last index.
func TargetIndex(y, source int, rows []Rect) int {
	n := len(rows)
	if n == 0 {
		return source
	}
	if y < rows[0].Top {
		return 0
	}
	last := rows[n-1]
	if y >= last.Top+last.Height {
		return n - 1
	}

	pos := -1
	for i, r := range rows {
		if y < r.Top {
			// In a gap between rows: before the next one.
			pos = i
			break
		}
		if y < r.Top+r.Height {
			if (y-r.Top)*2 < r.Height {
				pos = i
			} else {
				pos = i + 1
			}
			break
		}
	}
	if pos < 0 {
		return n - 1
	}
	if pos > source {
		pos--
	}
	if pos > n-1 {
		pos = n - 1
	}
	return pos
}
