package split

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zip"
	"go.uber.org/zap"
)

const (
	// ArchiveFolder is the folder inside the archive holding the group workbooks.
	// It is also the name of the staging directory created next to the input.
	ArchiveFolder = "SEPERATED_DATA"
	// ArchiveName is the default file name of the output archive.
	ArchiveName = "Separated_Data_Archive.zip"

	entryExt = ".xlsx"
)

// EntryName returns the path of a group workbook inside the archive.
func EntryName(sheetName string) string {
	return ArchiveFolder + "/" + sheetName + entryExt
}

// Archiver packs materialized files into a zip archive.
type Archiver struct {
	// Level is the deflate level; 0 selects flate.DefaultCompression, so
	// flate.NoCompression is not reachable.
	Level  int
	Logger *zap.Logger
}

// Archive writes files into a zip archive at dest, one deflate-compressed
// entry per file, in the given order. When two files map to the same entry
// name the later one replaces the earlier one. The archive is assembled in a
// temporary file next to dest and renamed into place once complete, so dest
// never holds a partial archive. It returns the number of entries written.
func (a *Archiver) Archive(files []MaterializedFile, dest string) (int, error) {
	log := a.Logger
	if log == nil {
		log = zap.NewNop()
	}
	level := a.Level
	if level == 0 {
		level = flate.DefaultCompression
	}

	last := make(map[string]int, len(files))
	for i, f := range files {
		last[EntryName(f.Name)] = i
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), "."+filepath.Base(dest)+".*.tmp")
	if err != nil {
		return 0, &ArchiveWriteError{Path: dest, Err: err}
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			tmp.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	zw := zip.NewWriter(tmp)
	zw.RegisterCompressor(zip.Deflate, func(w io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(w, level)
	})

	entries := 0
	for i, f := range files {
		name := EntryName(f.Name)
		if last[name] != i {
			log.Debug("entry replaced by a later group",
				zap.String("entry", name),
				zap.String("path", f.Path))
			continue
		}
		if err := addEntry(zw, name, f.Path); err != nil {
			return 0, &ArchiveWriteError{Path: dest, Err: err}
		}
		entries++
	}

	if err := zw.Close(); err != nil {
		return 0, &ArchiveWriteError{Path: dest, Err: err}
	}
	if err := tmp.Chmod(0644); err != nil {
		return 0, &ArchiveWriteError{Path: dest, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return 0, &ArchiveWriteError{Path: dest, Err: err}
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		return 0, &ArchiveWriteError{Path: dest, Err: err}
	}
	committed = true

	log.Info("created zip archive", zap.String("path", dest), zap.Int("entries", entries))
	return entries, nil
}

func addEntry(zw *zip.Writer, name, src string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("could not open %s: %w", src, err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return fmt.Errorf("could not stat %s: %w", src, err)
	}
	hdr, err := zip.FileInfoHeader(info)
	if err != nil {
		return fmt.Errorf("could not build header for %s: %w", name, err)
	}
	hdr.Name = name
	hdr.Method = zip.Deflate

	w, err := zw.CreateHeader(hdr)
	if err != nil {
		return fmt.Errorf("could not add %s: %w", name, err)
	}
	if _, err := io.Copy(w, in); err != nil {
		return fmt.Errorf("could not compress %s: %w", name, err)
	}
	return nil
}

// Cleanup removes every materialized file and then the staging directory.
// Missing files are ignored and no error is ever returned; failures are logged.
func Cleanup(files []MaterializedFile, stagingDir string, log *zap.Logger) {
	if log == nil {
		log = zap.NewNop()
	}

	for _, f := range files {
		err := os.Remove(f.Path)
		switch {
		case err == nil:
			log.Debug("cleaned up temporary file", zap.String("path", f.Path))
		case !os.IsNotExist(err):
			log.Warn("could not remove temporary file", zap.String("path", f.Path), zap.Error(err))
		}
	}

	if stagingDir == "" {
		return
	}
	info, err := os.Lstat(stagingDir)
	if err != nil {
		return
	}
	if !info.IsDir() {
		log.Warn("staging path is not a directory, leaving it in place", zap.String("path", stagingDir))
		return
	}
	if err := os.RemoveAll(stagingDir); err != nil {
		log.Warn("could not remove staging directory", zap.String("path", stagingDir), zap.Error(err))
		return
	}
	log.Debug("cleaned up staging directory", zap.String("path", stagingDir))
}
