package split

import (
	"errors"
	"fmt"

	"github.com/klytics/sheetsplit/internal/formats/xlsx"
)

// Error categories. Every typed error below matches exactly one of these
// with errors.Is.
var (
	ErrInputNotFound      = errors.New("input not found")
	ErrUnreadableFormat   = errors.New("unreadable spreadsheet")
	ErrInvalidColumnIndex = errors.New("invalid column index")
	ErrStagingDir         = errors.New("staging directory error")
	ErrGroupWrite         = errors.New("group write failed")
	ErrArchiveWrite       = errors.New("archive write failed")
)

// InputNotFoundError is returned when the input path does not resolve.
type InputNotFoundError struct {
	Path string
	Err  error
}

func (e *InputNotFoundError) Error() string {
	return fmt.Sprintf("file not found: %s — check that the path is correct", e.Path)
}

func (e *InputNotFoundError) Unwrap() error        { return e.Err }
func (e *InputNotFoundError) Is(target error) bool { return target == ErrInputNotFound }

// UnreadableFormatError is returned when the input cannot be parsed as a spreadsheet table.
type UnreadableFormatError struct {
	Path string
	Err  error
}

func (e *UnreadableFormatError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("could not read %s as a spreadsheet", e.Path)
	}
	return e.Err.Error()
}

func (e *UnreadableFormatError) Unwrap() error        { return e.Err }
func (e *UnreadableFormatError) Is(target error) bool { return target == ErrUnreadableFormat }

// InvalidColumnIndexError is returned when the grouping column is outside the header.
type InvalidColumnIndexError struct {
	Index   int
	Columns int
}

func (e *InvalidColumnIndexError) Error() string {
	if e.Columns == 0 {
		return fmt.Sprintf("column index %d is out of range — the table has no columns", e.Index)
	}
	return fmt.Sprintf("column index %d is out of range — the table has %d columns (valid: 0..%d)",
		e.Index, e.Columns, e.Columns-1)
}

func (e *InvalidColumnIndexError) Is(target error) bool { return target == ErrInvalidColumnIndex }

// StagingDirError is returned when the staging directory cannot be created.
type StagingDirError struct {
	Path string
	Err  error
}

func (e *StagingDirError) Error() string {
	return fmt.Sprintf("could not create staging directory %s: %v", e.Path, e.Err)
}

func (e *StagingDirError) Unwrap() error        { return e.Err }
func (e *StagingDirError) Is(target error) bool { return target == ErrStagingDir }

// GroupWriteError is returned when one group's workbook cannot be written.
type GroupWriteError struct {
	Key  any
	Name string
	Err  error
}

func (e *GroupWriteError) Error() string {
	return fmt.Sprintf("could not write group %s (sheet %q): %v", describeKey(e.Key), e.Name, e.Err)
}

func (e *GroupWriteError) Unwrap() error        { return e.Err }
func (e *GroupWriteError) Is(target error) bool { return target == ErrGroupWrite }

// ArchiveWriteError is returned when the output archive cannot be created or written.
type ArchiveWriteError struct {
	Path string
	Err  error
}

func (e *ArchiveWriteError) Error() string {
	return fmt.Sprintf("could not write archive %s: %v", e.Path, e.Err)
}

func (e *ArchiveWriteError) Unwrap() error        { return e.Err }
func (e *ArchiveWriteError) Is(target error) bool { return target == ErrArchiveWrite }

// describeKey renders a group key with its type so that keys such as the
// number 3 and the string "3" are distinguishable in messages.
func describeKey(key any) string {
	switch v := key.(type) {
	case string:
		return fmt.Sprintf("%q", v)
	case nil:
		return "<absent>"
	default:
		return fmt.Sprintf("%s (%T)", xlsx.Text(v), v)
	}
}
