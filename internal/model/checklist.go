package model

import (
	"sort"
	"time"
)

// DefaultChecklistTitle is the title given to newly created checklists.
const DefaultChecklistTitle = "New Listo"

type Collaborator struct {
	Email   string `json:"email"`
	Picture string `json:"picture"`
}

type Checklist struct {
	ID            string         `json:"id"`
	Title         string         `json:"title"`
	Locked        bool           `json:"locked"`
	Collaborators []Collaborator `json:"collaborators"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// OtherCollaborators returns the collaborators excluding the given email address.
func (c Checklist) OtherCollaborators(email string) []Collaborator {
	out := make([]Collaborator, 0, len(c.Collaborators))
	for _, collab := range c.Collaborators {
		if collab.Email != email {
			out = append(out, collab)
		}
	}
	return out
}

type Item struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Checked   bool      `json:"checked"`
	Ordering  int       `json:"ordering"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ChecklistDetail is a checklist together with its items.
type ChecklistDetail struct {
	Checklist Checklist `json:"checklist"`
	Items     []Item    `json:"items"`
}

// SortItems orders items by their ordering field, keeping the relative order of ties.
func SortItems(items []Item) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Ordering < items[j].Ordering
	})
}

// NextOrdering returns the ordering for an item appended to items: max+1, or 0 when empty.
func NextOrdering(items []Item) int {
	next := 0
	for _, it := range items {
		if it.Ordering+1 > next {
			next = it.Ordering + 1
		}
	}
	return next
}

// CheckedIDs returns the IDs of all checked items, in list order.
func CheckedIDs(items []Item) []string {
	var ids []string
	for _, it := range items {
		if it.Checked {
			ids = append(ids, it.ID)
		}
	}
	return ids
}

// IsDense reports whether the orderings of items are exactly 0..n-1 with no duplicates.
func IsDense(items []Item) bool {
	seen := make([]bool, len(items))
	for _, it := range items {
		if it.Ordering < 0 || it.Ordering >= len(items) || seen[it.Ordering] {
			return false
		}
		seen[it.Ordering] = true
	}
	return true
}

// SortByUpdatedDesc orders checklists most recently updated first.
func SortByUpdatedDesc(lists []Checklist) {
	sort.SliceStable(lists, func(i, j int) bool {
		return lists[i].UpdatedAt.After(lists[j].UpdatedAt)
	})
}
