// Package media stores user uploads on the local filesystem.
package media

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// PostsDir is the namespace, relative to the media root, for post images.
const PostsDir = "posts"

// ErrNotImage is returned when an upload does not look like a raster image.
var ErrNotImage = errors.New("upload a valid image")

var unsafeChars = regexp.MustCompile(`[^\w.-]+`)

type Storage struct {
	root string
}

func NewStorage(root string) *Storage {
	return &Storage{root: root}
}

func (s *Storage) Root() string {
	return s.root
}

// Path resolves a stored relative reference such as "posts/cat.png" to its
// location on disk.
func (s *Storage) Path(ref string) string {
	return filepath.Join(s.root, filepath.FromSlash(ref))
}

// SavePostImage writes the upload under PostsDir and returns its reference
// relative to the media root. An existing file is never overwritten; a short
// random suffix is added to the name instead.
func (s *Storage) SavePostImage(fh *multipart.FileHeader) (string, error) {
	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	mt, err := mimetype.DetectReader(src)
	if err != nil {
		return "", fmt.Errorf("detect upload type: %w", err)
	}
	if !isRasterImage(mt) {
		return "", ErrNotImage
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("rewind upload: %w", err)
	}

	dir := filepath.Join(s.root, PostsDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create media dir: %w", err)
	}

	stem, ext := splitName(fh.Filename, mt.Extension())
	name := stem + ext
	for attempt := 0; ; attempt++ {
		dst, err := os.OpenFile(filepath.Join(dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, os.ErrExist) && attempt < 10 {
			name = stem + "_" + uuid.NewString()[:7] + ext
			continue
		}
		if err != nil {
			return "", fmt.Errorf("create media file: %w", err)
		}
		if _, err := io.Copy(dst, src); err != nil {
			dst.Close()
			_ = os.Remove(dst.Name())
			return "", fmt.Errorf("write media file: %w", err)
		}
		if err := dst.Close(); err != nil {
			return "", fmt.Errorf("close media file: %w", err)
		}
		return path.Join(PostsDir, name), nil
	}
}

// Remove deletes a stored file. A reference that is already gone is not an
// error.
func (s *Storage) Remove(ref string) error {
	if ref == "" {
		return nil
	}
	if err := os.Remove(s.Path(ref)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove media file: %w", err)
	}
	return nil
}

func isRasterImage(mt *mimetype.MIME) bool {
	for m := mt; m != nil; m = m.Parent() {
		if m.Is("image/svg+xml") {
			return false
		}
	}
	return strings.HasPrefix(mt.String(), "image/")
}

// splitName sanitizes an uploaded file name into stem and extension. The
// detected extension is used when the client sent none.
func splitName(filename, detectedExt string) (string, string) {
	base := filepath.Base(strings.ReplaceAll(filename, `\`, "/"))
	ext := strings.ToLower(filepath.Ext(base))
	stem := strings.TrimSuffix(base, filepath.Ext(base))

	stem = strings.Trim(unsafeChars.ReplaceAllString(stem, "_"), "._")
	if stem == "" {
		stem = "image"
	}
	ext = unsafeChars.ReplaceAllString(ext, "")
	if ext == "" || ext == "." {
		ext = detectedExt
	}
	return stem, ext
}
