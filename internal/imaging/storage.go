package imaging

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// DiskStore keeps product images as files in a single directory. Stored
// images are referenced as PublicBase + "/" + file name.
type DiskStore struct {
	Dir        string
	PublicBase string
}

// NewDiskStore returns a store rooted at dir, creating it if needed.
func NewDiskStore(dir, publicBase string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating image directory: %w", err)
	}
	return &DiskStore{Dir: dir, PublicBase: strings.TrimRight(publicBase, "/")}, nil
}

// Save writes data under name and returns its public reference.
func (s *DiskStore) Save(name string, data []byte) (string, error) {
	name = filepath.Base(name)
	if name == "." || name == string(filepath.Separator) {
		return "", fmt.Errorf("invalid image file name %q", name)
	}
	if err := os.WriteFile(filepath.Join(s.Dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("writing image: %w", err)
	}
	return s.PublicBase + "/" + name, nil
}

// Path maps a public reference to its file. Only the base name of ref is
// used, so a reference can never point outside Dir.
func (s *DiskStore) Path(ref string) string {
	return filepath.Join(s.Dir, path.Base(filepath.ToSlash(ref)))
}

// Exists reports whether the file behind ref is present.
func (s *DiskStore) Exists(ref string) bool {
	if ref == "" {
		return false
	}
	info, err := os.Stat(s.Path(ref))
	return err == nil && info.Mode().IsRegular()
}

// Delete removes the file behind ref. A missing file is not an error.
func (s *DiskStore) Delete(ref string) error {
	if !s.Exists(ref) {
		return nil
	}
	if err := os.Remove(s.Path(ref)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing image: %w", err)
	}
	return nil
}
