package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Category is one entry of a taxonomy.
type Category struct {
	// ID is unique within its taxonomy, assigned sequentially from "1".
	ID string `json:"id" yaml:"id"`

	// Name is a short label.
	Name string `json:"name" yaml:"name"`

	// Description distinguishes the category from its siblings.
	Description string `json:"description" yaml:"description"`
}

// Taxonomy is an ordered list of categories with unique IDs.
type Taxonomy []Category

// NewTaxonomy copies categories, dropping entries without a name and
// renumbering IDs sequentially from "1" in input order.
func NewTaxonomy(categories []Category) Taxonomy {
	t := make(Taxonomy, 0, len(categories))
	for _, c := range categories {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			continue
		}
		t = append(t, Category{
			ID:          strconv.Itoa(len(t) + 1),
			Name:        name,
			Description: strings.TrimSpace(c.Description),
		})
	}
	return t
}

// AssignIDs copies categories, trimming fields and dropping entries without
// a name. Existing IDs are kept; missing ones get the next unused number.
func AssignIDs(categories []Category) Taxonomy {
	used := make(map[string]bool, len(categories))
	for _, c := range categories {
		if id := strings.TrimSpace(c.ID); id != "" {
			used[id] = true
		}
	}

	t := make(Taxonomy, 0, len(categories))
	next := 1
	for _, c := range categories {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			continue
		}
		id := strings.TrimSpace(c.ID)
		if id == "" {
			for used[strconv.Itoa(next)] {
				next++
			}
			id = strconv.Itoa(next)
			used[id] = true
		}
		t = append(t, Category{ID: id, Name: name, Description: strings.TrimSpace(c.Description)})
	}
	return t
}

// ParseCategory reads an inline "Name: description" definition.
// The description is optional.
func ParseCategory(s string) (Category, error) {
	name, desc, _ := strings.Cut(s, ":")
	name = strings.TrimSpace(name)
	if name == "" {
		return Category{}, fmt.Errorf("%w: category %q has no name", ErrInvalidInput, s)
	}
	return Category{Name: name, Description: strings.TrimSpace(desc)}, nil
}

// Find returns the category with the given ID.
func (t Taxonomy) Find(id string) (Category, bool) {
	id = strings.TrimSpace(id)
	for _, c := range t {
		if c.ID == id {
			return c, true
		}
	}
	return Category{}, false
}

// IDs returns the category IDs in order.
func (t Taxonomy) IDs() []string {
	ids := make([]string, len(t))
	for i, c := range t {
		ids[i] = c.ID
	}
	return ids
}

// Names returns the category names in order.
func (t Taxonomy) Names() []string {
	names := make([]string, len(t))
	for i, c := range t {
		names[i] = c.Name
	}
	return names
}

// Truncate returns at most n categories. The receiver is not modified.
func (t Taxonomy) Truncate(n int) Taxonomy {
	if n < 0 || len(t) <= n {
		return t.Clone()
	}
	return t[:n:n].Clone()
}

// Clone returns an independent copy.
func (t Taxonomy) Clone() Taxonomy {
	if t == nil {
		return nil
	}
	out := make(Taxonomy, len(t))
	copy(out, t)
	return out
}

// Snapshot is one immutable taxonomy version produced from one minibatch.
type Snapshot struct {
	// Batch is the 1-based minibatch number, 0 for a predefined taxonomy.
	Batch int `json:"batch"`

	// Categories is the taxonomy at this point.
	Categories Taxonomy `json:"categories"`

	// Explanation is the model's rationale for this version.
	Explanation string `json:"explanation,omitempty"`

	// Retained is true when the batch failed to revise and the previous
	// categories were carried forward.
	Retained bool `json:"retained,omitempty"`
}

// SnapshotLog is the append-only history of taxonomy snapshots.
// The current taxonomy is always the last element.
// The zero value is an empty log ready for use.
type SnapshotLog struct {
	snapshots []Snapshot
}

// Append records a new snapshot. Categories are copied so later changes
// to the caller's slice cannot alter history.
func (l *SnapshotLog) Append(s Snapshot) {
	s.Categories = s.Categories.Clone()
	l.snapshots = append(l.snapshots, s)
}

// Len returns the number of snapshots.
func (l *SnapshotLog) Len() int {
	return len(l.snapshots)
}

// Current returns the latest snapshot.
func (l *SnapshotLog) Current() (Snapshot, bool) {
	if len(l.snapshots) == 0 {
		return Snapshot{}, false
	}
	s := l.snapshots[len(l.snapshots)-1]
	s.Categories = s.Categories.Clone()
	return s, true
}

// At returns the snapshot at index i.
func (l *SnapshotLog) At(i int) (Snapshot, bool) {
	if i < 0 || i >= len(l.snapshots) {
		return Snapshot{}, false
	}
	s := l.snapshots[i]
	s.Categories = s.Categories.Clone()
	return s, true
}

// All returns a copy of every snapshot in order.
func (l *SnapshotLog) All() []Snapshot {
	out := make([]Snapshot, len(l.snapshots))
	for i, s := range l.snapshots {
		s.Categories = s.Categories.Clone()
		out[i] = s
	}
	return out
}
