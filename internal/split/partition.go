package split

import (
	"slices"

	"github.com/klytics/sheetsplit/internal/formats/xlsx"
)

// Group holds the rows that share one value in the grouping column.
type Group struct {
	Key  any
	Name string
	Rows []xlsx.Row
}

// Collision records distinct group keys that sanitize to the same sheet name.
type Collision struct {
	Name string `json:"name"`
	Keys []any  `json:"keys"`
}

// Partition splits the table's rows into groups keyed by the value at the
// given zero-based column. Absent values are grouped under BlankKey. Groups
// come back in order of first appearance and rows keep their table order.
// The table is not modified.
func Partition(t *xlsx.Table, column int) ([]*Group, error) {
	if column < 0 || column >= t.Width() {
		return nil, &InvalidColumnIndexError{Index: column, Columns: t.Width()}
	}

	index := make(map[any]int)
	var groups []*Group

	for _, row := range t.Rows {
		key := row[column]
		if key == nil {
			key = BlankKey
			row = slices.Clone(row)
			row[column] = BlankKey
		}

		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, &Group{Key: key})
		}
		groups[i].Rows = append(groups[i].Rows, row)
	}

	return groups, nil
}

// NameGroups sets every group's sheet name from its key. When unique is set,
// names that are already taken in this run get a " (n)" suffix.
func NameGroups(groups []*Group, unique bool) {
	taken := nameAllocator{}
	for _, g := range groups {
		name := CleanSheetName(g.Key)
		if unique {
			name = taken.take(name)
		}
		g.Name = name
	}
}

// Collisions lists the sheet names shared by more than one group, in order of
// first appearance.
func Collisions(groups []*Group) []Collision {
	byName := make(map[string]int)
	var all []Collision
	for _, g := range groups {
		name := g.Name
		if name == "" {
			name = CleanSheetName(g.Key)
		}
		i, ok := byName[name]
		if !ok {
			i = len(all)
			byName[name] = i
			all = append(all, Collision{Name: name})
		}
		all[i].Keys = append(all[i].Keys, g.Key)
	}

	var shared []Collision
	for _, c := range all {
		if len(c.Keys) > 1 {
			shared = append(shared, c)
		}
	}
	return shared
}
