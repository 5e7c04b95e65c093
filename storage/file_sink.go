package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"

	"listings-etl/models"
)

// Artifact file names inside the output directory.
const (
	ParquetFile = "clean_listings.parquet"
	ReportFile  = "data_quality_report.json"
	ProfileFile = "output_profile.json"
	RejectsFile = "invalid_rows.csv"
	ReadmeFile  = "README.txt"
)

type stagedFile struct {
	tmp   string
	final string
}

// FileSink writes the run artifacts into an output directory. Files are first
// staged under temporary names and only renamed into place by Commit, so a
// failed run never publishes a partial set.
type FileSink struct {
	dir          string
	writeRejects bool
	staged       []stagedFile
}

// NewFileSink creates the output directory if needed.
func NewFileSink(dir string, writeRejects bool) (*FileSink, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, eris.Wrapf(err, "files: create output dir %q", dir)
	}
	return &FileSink{dir: dir, writeRejects: writeRejects}, nil
}

// Stage writes every artifact for out to temporary files. On error all staged
// files are removed.
func (s *FileSink) Stage(out *models.Output) error {
	err := s.stage(ParquetFile, func(w io.Writer) error {
		return WriteParquet(w, out.Rows)
	})
	if err == nil {
		err = s.stage(ReportFile, func(w io.Writer) error {
			return WriteJSON(w, out.Report)
		})
	}
	if err == nil && out.Profile != nil {
		err = s.stage(ProfileFile, func(w io.Writer) error {
			return WriteJSON(w, out.Profile)
		})
	}
	if err == nil && s.writeRejects && len(out.Rejected) > 0 {
		err = s.stage(RejectsFile, func(w io.Writer) error {
			cw, err := NewCSVWriter(w, out.Columns)
			if err != nil {
				return err
			}
			if err := cw.WriteRejected(out.Rejected); err != nil {
				return err
			}
			return cw.Flush()
		})
	}

	if err == nil {
		err = s.stage(ReadmeFile, func(w io.Writer) error {
			return s.writeReadme(w, out)
		})
	}

	if err != nil {
		s.Discard()
		return err
	}
	return nil
}

// writeReadme describes the artifacts of one run.
func (s *FileSink) writeReadme(w io.Writer, out *models.Output) error {
	lines := []string{
		fmt.Sprintf("Artifacts generated by listings-etl (run %s)", out.RunID),
		fmt.Sprintf("- %s: %d clean, deduplicated, enriched rows", ParquetFile, len(out.Rows)),
		fmt.Sprintf("- %s: data-quality counters", ReportFile),
	}
	if out.Profile != nil {
		lines = append(lines, fmt.Sprintf("- %s: price statistics, groupings and validation issues", ProfileFile))
	}
	if s.writeRejects && len(out.Rejected) > 0 {
		lines = append(lines, fmt.Sprintf("- %s: rows dropped during validation (%d)", RejectsFile, out.RejectedCount()))
	}
	_, err := io.WriteString(w, strings.Join(lines, "\n")+"\n")
	return err
}

func (s *FileSink) stage(name string, write func(io.Writer) error) error {
	f, err := os.CreateTemp(s.dir, "."+name+".*.tmp")
	if err != nil {
		return eris.Wrapf(err, "files: stage %s", name)
	}
	s.staged = append(s.staged, stagedFile{tmp: f.Name(), final: filepath.Join(s.dir, name)})

	if err := write(f); err != nil {
		_ = f.Close()
		return eris.Wrapf(err, "files: write %s", name)
	}
	if err := f.Close(); err != nil {
		return eris.Wrapf(err, "files: close %s", name)
	}
	return nil
}

// rename is swapped in tests to simulate a failing filesystem.
var rename = os.Rename

type publishedFile struct {
	final  string
	backup string
}

// Commit moves the staged files into place. Files from an earlier run are
// kept aside until every rename succeeded; if one fails, the files already
// moved are withdrawn and the earlier ones restored. A rejects file left over
// from an earlier run is removed when this run staged none.
func (s *FileSink) Commit() ([]string, error) {
	done := make([]publishedFile, 0, len(s.staged))
	rejectsStaged := false

	for _, f := range s.staged {
		p := publishedFile{final: f.final}
		if _, err := os.Stat(f.final); err == nil {
			p.backup = f.tmp + ".bak"
			if err := rename(f.final, p.backup); err != nil {
				s.rollback(done)
				return nil, eris.Wrapf(err, "files: set aside %s", filepath.Base(f.final))
			}
		}
		if err := rename(f.tmp, f.final); err != nil {
			if p.backup != "" {
				_ = rename(p.backup, f.final)
			}
			s.rollback(done)
			return nil, eris.Wrapf(err, "files: publish %s", filepath.Base(f.final))
		}
		if filepath.Base(f.final) == RejectsFile {
			rejectsStaged = true
		}
		done = append(done, p)
	}
	s.staged = nil

	published := make([]string, 0, len(done))
	for _, p := range done {
		if p.backup != "" {
			_ = os.Remove(p.backup)
		}
		published = append(published, p.final)
	}

	if !rejectsStaged {
		err := os.Remove(filepath.Join(s.dir, RejectsFile))
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return published, eris.Wrap(err, "files: remove stale rejects")
		}
	}
	return published, nil
}

// rollback withdraws published files in reverse order, restores the files
// they replaced and discards whatever is still staged.
func (s *FileSink) rollback(done []publishedFile) {
	for i := len(done) - 1; i >= 0; i-- {
		_ = os.Remove(done[i].final)
		if done[i].backup != "" {
			_ = rename(done[i].backup, done[i].final)
		}
	}
	s.Discard()
}

// Discard removes any staged files that were not committed.
func (s *FileSink) Discard() {
	for _, f := range s.staged {
		_ = os.Remove(f.tmp)
	}
	s.staged = nil
}
