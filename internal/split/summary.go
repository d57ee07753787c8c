package split

import (
	"fmt"

	"github.com/montanaflynn/stats"
)

// SizeStats summarizes the number of rows per group.
type SizeStats struct {
	Groups int     `json:"groups"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
}

// Preview is the outcome of loading and partitioning an input without writing anything.
type Preview struct {
	Input      string      `json:"input"`
	Sheet      string      `json:"sheet"`
	Column     string      `json:"column"`
	Rows       int         `json:"rows"`
	Groups     []GroupInfo `json:"groups"`
	Collisions []Collision `json:"collisions,omitempty"`
	Sizes      SizeStats   `json:"sizes"`
}

// Inspect loads and partitions the input described by opts and reports the
// groups a run would produce. No files are created.
func Inspect(opts Options) (*Preview, error) {
	table, err := Load(opts.InputPath, opts.Sheet)
	if err != nil {
		return nil, err
	}
	groups, err := Partition(table, opts.GroupColumn)
	if err != nil {
		return nil, err
	}
	NameGroups(groups, opts.Disambiguate)

	sizes, err := GroupSizeStats(groups)
	if err != nil {
		return nil, err
	}

	p := &Preview{
		Input:      opts.InputPath,
		Sheet:      table.Sheet,
		Column:     table.Header[opts.GroupColumn],
		Rows:       len(table.Rows),
		Collisions: Collisions(groups),
		Sizes:      sizes,
	}
	for _, g := range groups {
		p.Groups = append(p.Groups, GroupInfo{
			Key:   g.Key,
			Name:  g.Name,
			Entry: EntryName(g.Name),
			Rows:  len(g.Rows),
		})
	}
	return p, nil
}

// GroupSizeStats computes row-count statistics over the groups.
// An empty partition yields zero values.
func GroupSizeStats(groups []*Group) (SizeStats, error) {
	if len(groups) == 0 {
		return SizeStats{}, nil
	}

	data := make(stats.Float64Data, len(groups))
	for i, g := range groups {
		data[i] = float64(len(g.Rows))
	}

	s := SizeStats{Groups: len(groups)}
	var err error
	if s.Min, err = data.Min(); err != nil {
		return SizeStats{}, fmt.Errorf("could not compute minimum group size: %w", err)
	}
	if s.Max, err = data.Max(); err != nil {
		return SizeStats{}, fmt.Errorf("could not compute maximum group size: %w", err)
	}
	if s.Mean, err = data.Mean(); err != nil {
		return SizeStats{}, fmt.Errorf("could not compute mean group size: %w", err)
	}
	if s.Median, err = data.Median(); err != nil {
		return SizeStats{}, fmt.Errorf("could not compute median group size: %w", err)
	}
	return s, nil
}
