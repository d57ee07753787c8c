package split

import (
	"os"

	"go.uber.org/zap"

	"github.com/klytics/sheetsplit/internal/formats/xlsx"
)

// MaterializedFile is one group's workbook written to the staging directory.
// Path is a generated unique name; Name is the sheet title and archive entry name.
type MaterializedFile struct {
	Path string
	Name string
	Key  any
	Rows int
}

// ProgressFunc is called after each group workbook has been written.
type ProgressFunc func(done, total int, name string)

// Materializer writes groups into standalone workbooks inside a staging directory.
// It creates files but never removes them; see Cleanup.
type Materializer struct {
	Dir      string
	Logger   *zap.Logger
	Progress ProgressFunc
}

// Materialize writes one workbook per group, in group order. Each workbook
// holds the header followed by the group's rows, on a sheet titled with the
// group's name. When an error is returned, the returned slice still holds
// every file created so far (including the one that failed) so the caller
// can remove them.
func (m *Materializer) Materialize(header []string, groups []*Group) ([]MaterializedFile, error) {
	log := m.Logger
	if log == nil {
		log = zap.NewNop()
	}

	if err := os.MkdirAll(m.Dir, 0755); err != nil {
		return nil, &StagingDirError{Path: m.Dir, Err: err}
	}

	files := make([]MaterializedFile, 0, len(groups))
	for i, g := range groups {
		name := g.Name
		if name == "" {
			name = CleanSheetName(g.Key)
		}

		tmp, err := os.CreateTemp(m.Dir, "group-*.xlsx")
		if err != nil {
			return files, &GroupWriteError{Key: g.Key, Name: name, Err: err}
		}
		file := MaterializedFile{Path: tmp.Name(), Name: name, Key: g.Key, Rows: len(g.Rows)}
		files = append(files, file)

		werr := xlsx.Write(&xlsx.Table{Sheet: name, Header: header, Rows: g.Rows}, name, tmp)
		if cerr := tmp.Close(); werr == nil {
			werr = cerr
		}
		if werr != nil {
			return files, &GroupWriteError{Key: g.Key, Name: name, Err: werr}
		}

		log.Debug("created temporary file",
			zap.String("path", file.Path),
			zap.String("sheet", name),
			zap.Int("rows", file.Rows))

		if m.Progress != nil {
			m.Progress(i+1, len(groups), name)
		}
	}

	return files, nil
}
