// Package media manages the on-disk layout of uploaded images. Originals
// live under <root>/full, generated thumbnails under <root>/thumbnails, and
// both areas are served back over HTTP under the /uploads prefix. Only a
// fixed set of image extensions is accepted.
package media

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// URL prefixes under which the two media areas are served.
const (
	FullURLPrefix  = "/uploads/full/"
	ThumbURLPrefix = "/uploads/thumbnails/"
)

// allowedExts is the fixed set of accepted image extensions (lowercase).
var allowedExts = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".gif":  {},
	".webp": {},
}

// Store resolves between URL paths and filesystem paths for the media area.
type Store struct {
	root string
}

// NewStore creates (if needed) the full/ and thumbnails/ directories under
// root and returns a Store over them.
func NewStore(root string) (*Store, error) {
	for _, dir := range []string{filepath.Join(root, "full"), filepath.Join(root, "thumbnails")} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create media dir %s: %w", dir, err)
		}
	}
	return &Store{root: root}, nil
}

// Root returns the media root directory (the directory served at /uploads).
func (s *Store) Root() string { return s.root }

// AllowedExt reports whether the filename carries an accepted image
// extension. The check is case-insensitive.
func AllowedExt(name string) bool {
	_, ok := allowedExts[strings.ToLower(filepath.Ext(name))]
	return ok
}

// SaveUpload writes an uploaded image into the full/ area under a unique
// name derived from the original filename, and returns its URL path.
func (s *Store) SaveUpload(filename string, r io.Reader) (string, error) {
	if !AllowedExt(filename) {
		return "", fmt.Errorf("unsupported file extension %q", filepath.Ext(filename))
	}
	base := filepath.Base(filename)
	unique := uuid.NewString()[:8] + "_" + base
	dst := filepath.Join(s.root, "full", unique)

	f, err := os.Create(dst)
	if err != nil {
		return "", err
	}
	defer f.Close()
	if _, err := io.Copy(f, r); err != nil {
		os.Remove(dst)
		return "", err
	}
	return FullURLPrefix + unique, nil
}

// IsUploadedImage reports whether ref denotes a file in the full/ area with
// an accepted extension. External URLs and arbitrary paths do not qualify,
// so no thumbnail job is fired for them.
func (s *Store) IsUploadedImage(ref string) bool {
	return strings.HasPrefix(ref, FullURLPrefix) && AllowedExt(ref)
}

// ResolveFull maps an image reference (URL path or bare filename) to a path
// in the full/ area. References outside the media area are rejected.
func (s *Store) ResolveFull(ref string) (string, error) {
	name := ref
	switch {
	case strings.HasPrefix(ref, FullURLPrefix):
		name = strings.TrimPrefix(ref, FullURLPrefix)
	case strings.HasPrefix(ref, ThumbURLPrefix):
		name = strings.TrimPrefix(ref, ThumbURLPrefix)
	}
	name = filepath.Base(name) // no traversal outside the media area
	if name == "" || name == "." {
		return "", fmt.Errorf("empty image reference %q", ref)
	}
	return filepath.Join(s.root, "full", name), nil
}

// ThumbName derives the deterministic thumbnail filename for an original:
// thumb_<original-filename>. Reprocessing the same original always lands on
// the same name, which is what makes redelivered jobs harmless.
func ThumbName(original string) string {
	return "thumb_" + filepath.Base(original)
}

// ThumbPath returns the filesystem path for the thumbnail of an original
// filename.
func (s *Store) ThumbPath(original string) string {
	return filepath.Join(s.root, "thumbnails", ThumbName(original))
}

// ThumbURL returns the URL path under which the thumbnail of an original
// filename is served.
func ThumbURL(original string) string {
	return ThumbURLPrefix + ThumbName(original)
}
