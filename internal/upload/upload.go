// Package upload validates damage photos and holds their bytes for display.
package upload

import (
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// MaxSize is the default per-file limit, 10 MiB.
const MaxSize int64 = 10 * 1024 * 1024

// DefaultAllowedTypes lists the media types accepted for damage photos.
var DefaultAllowedTypes = []string{"image/jpeg", "image/png", "image/heic", "image/heif"}

var (
	ErrUnsupportedType = errors.New("unsupported media type")
	ErrTooLarge        = errors.New("file too large")
)

// User-facing rejection messages.
const (
	MsgUnsupportedType = "Only JPEG, PNG, and HEIC images are allowed"
	MsgTooLarge        = "Image size must be less than 10MB"
)

// File is a user-selected file before it becomes a Photo.
type File struct {
	Name string
	Type string // media type, as a browser would report it
	Size int64
	Data []byte
}

// Limits bound what Validate accepts.
type Limits struct {
	MaxBytes     int64
	AllowedTypes []string
}

// DefaultLimits returns the stock 10 MiB image limits.
func DefaultLimits() Limits {
	return Limits{MaxBytes: MaxSize, AllowedTypes: slices.Clone(DefaultAllowedTypes)}
}

// Validate checks the media type first, then the size.
func (l Limits) Validate(f File) error {
	if !slices.Contains(l.AllowedTypes, strings.ToLower(f.Type)) {
		return fmt.Errorf("%w: %q", ErrUnsupportedType, f.Type)
	}
	if f.Size > l.MaxBytes {
		return fmt.Errorf("%w: %d bytes", ErrTooLarge, f.Size)
	}
	return nil
}

// Message maps a validation error to the text shown to the user.
func Message(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUnsupportedType):
		return MsgUnsupportedType
	case errors.Is(err, ErrTooLarge):
		return MsgTooLarge
	default:
		return err.Error()
	}
}

// extraTypes covers extensions the system mime tables often lack.
var extraTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".heic": "image/heic",
	".heif": "image/heif",
}

// TypeByName derives a media type from the file extension.
func TypeByName(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if t, ok := extraTypes[ext]; ok {
		return t
	}
	t := mime.TypeByExtension(ext)
	if i := strings.IndexByte(t, ';'); i >= 0 {
		t = t[:i]
	}
	return t
}

// FromPath reads a file from disk. Files larger than limit are not read;
// only their size is recorded so validation can reject them.
func FromPath(path string, limit int64) (File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return File{}, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return File{}, fmt.Errorf("%s is a directory", path)
	}

	f := File{
		Name: filepath.Base(path),
		Type: TypeByName(path),
		Size: info.Size(),
	}
	if limit > 0 && f.Size > limit {
		return f, nil
	}

	f.Data, err = os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("reading %s: %w", path, err)
	}
	return f, nil
}
