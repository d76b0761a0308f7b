package static

import (
	"context"
	"errors"
	"io"
	"path"
	"path/filepath"
	"strings"
	"time"
)

// ErrNotExist is returned by a Source when no file exists under a name.
var ErrNotExist = errors.New("static: file does not exist")

// Source opens static files by slash-separated relative name.
type Source interface {
	Open(ctx context.Context, name string) (*File, error)
}

// File is an open static file. Callers must Close it.
type File struct {
	// Body is the file content. When it implements io.ReadSeeker the file is
	// served with range and conditional request support.
	Body io.ReadCloser

	// Size is the content length, or -1 when unknown.
	Size int64

	ModTime time.Time

	// ContentType is the stored content type. Empty types are detected from
	// the name.
	ContentType string
}

// Close closes the body.
func (f *File) Close() error {
	if f.Body == nil {
		return nil
	}
	return f.Body.Close()
}

// CacheControl selects the Cache-Control header written for static files.
type CacheControl int

const (
	// CacheNone writes no Cache-Control header.
	CacheNone CacheControl = iota

	// CacheDisabled forbids caching. Used while watching.
	CacheDisabled

	// CacheProduction caches fingerprinted files for a year and everything
	// else for an hour with revalidation.
	CacheProduction
)

// RelPath returns the sanitized relative file name for a request path under
// prefix. It rejects traversal and absolute-path tricks so a Source can never
// be asked for a name outside its root.
func RelPath(prefix, urlPath string) (string, bool) {
	rel, ok := stripPrefix(prefix, urlPath)
	if !ok || rel == "" {
		return "", false
	}

	// NUL can arrive via %00.
	if strings.IndexByte(rel, 0) != -1 {
		return "", false
	}
	if strings.Contains(rel, "\\") {
		return "", false
	}

	// "/static//etc/passwd" leaves "/etc/passwd" after stripping.
	if strings.HasPrefix(rel, "/") {
		return "", false
	}

	// Dot-segments are rejected before cleaning so traversal is not cleaned
	// away into a different file.
	for _, seg := range strings.Split(rel, "/") {
		if seg == "." || seg == ".." {
			return "", false
		}
	}

	clean := path.Clean(rel)
	if clean == "." || clean == "" || clean == ".." || strings.HasPrefix(clean, "../") || strings.HasPrefix(clean, "/") {
		return "", false
	}

	osPath := filepath.FromSlash(clean)
	if filepath.IsAbs(osPath) || filepath.VolumeName(osPath) != "" {
		return "", false
	}

	return clean, true
}

func stripPrefix(prefix, urlPath string) (string, bool) {
	if prefix == "" {
		prefix = "/"
	}
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	if prefix == "/" {
		return strings.TrimPrefix(urlPath, "/"), true
	}
	if !strings.HasPrefix(urlPath, prefix) {
		return "", false
	}
	return strings.TrimPrefix(urlPath, prefix), true
}

func (c CacheControl) header(name string) string {
	switch c {
	case CacheDisabled:
		return "no-store, no-cache, must-revalidate"
	case CacheProduction:
		if isFingerprinted(name) {
			return "public, max-age=31536000, immutable"
		}
		return "public, max-age=3600, must-revalidate"
	default:
		return ""
	}
}

// isFingerprinted reports whether the name carries a content hash, such as
// "app.a1b2c3d4.css".
func isFingerprinted(name string) bool {
	parts := strings.Split(path.Base(name), ".")
	if len(parts) < 3 {
		return false
	}

	hash := parts[len(parts)-2]
	if len(hash) < 8 {
		return false
	}
	for _, c := range hash {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')) {
			return false
		}
	}
	return true
}
