package extract

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// scratchDir is an isolated, uniquely named extraction area for one
// archive. Callers must invoke Remove on every exit path so repeated runs
// cannot exhaust the disk.
type scratchDir struct {
	root string
}

// extractArchive unpacks the zip at path into a fresh scratch directory.
func extractArchive(path, prefix string) (*scratchDir, error) {
	z, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer z.Close()

	root := filepath.Join(os.TempDir(), prefix+"-"+uuid.NewString())
	if err := os.MkdirAll(root, 0o700); err != nil {
		return nil, fmt.Errorf("creating scratch dir: %w", err)
	}
	s := &scratchDir{root: root}

	for _, f := range z.File {
		if err := s.writeEntry(f); err != nil {
			s.Remove()
			return nil, fmt.Errorf("extracting %s: %w", f.Name, err)
		}
	}
	return s, nil
}

func (s *scratchDir) writeEntry(f *zip.File) error {
	dst := filepath.Join(s.root, filepath.FromSlash(f.Name))
	// Reject entries that would escape the scratch root.
	if rel, err := filepath.Rel(s.root, dst); err != nil || strings.HasPrefix(rel, "..") {
		return fmt.Errorf("entry path escapes scratch dir")
	}

	if f.FileInfo().IsDir() {
		return os.MkdirAll(dst, 0o700)
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o700); err != nil {
		return err
	}

	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, rc)
	return err
}

// Path joins elem onto the scratch root.
func (s *scratchDir) Path(elem ...string) string {
	return filepath.Join(append([]string{s.root}, elem...)...)
}

// Rel returns path relative to the scratch root, falling back to the input.
func (s *scratchDir) Rel(path string) string {
	rel, err := filepath.Rel(s.root, path)
	if err != nil {
		return path
	}
	return rel
}

// Remove deletes the scratch directory and everything under it.
func (s *scratchDir) Remove() {
	os.RemoveAll(s.root)
}
