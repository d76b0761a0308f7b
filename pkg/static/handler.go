package static

import (
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path"
	"strconv"
	"strings"
)

// IndexFile is served for unmatched page requests in history mode.
const IndexFile = "index.html"

// Options configures a Handler.
type Options struct {
	// Prefix is the URL prefix files are served under. Default "/".
	Prefix string

	Cache CacheControl

	// Headers are set on every served file.
	Headers map[string]string

	// HistoryMode serves IndexFile for GET requests that accept HTML and
	// match no file.
	HistoryMode bool

	// NotFound handles requests no file matches. Nil uses http.NotFound.
	NotFound http.Handler

	Logger *slog.Logger
}

// Handler serves files from a Source. It only answers GET and HEAD; every
// other request goes to NotFound.
type Handler struct {
	src  Source
	opts Options
}

// NewHandler creates a handler for src.
func NewHandler(src Source, opts Options) *Handler {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Handler{src: src, opts: opts}
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		h.notFound(w, r)
		return
	}

	if rel, ok := RelPath(h.opts.Prefix, r.URL.Path); ok && h.serve(w, r, rel) {
		return
	}
	if h.opts.HistoryMode && acceptsHTML(r) && h.serve(w, r, IndexFile) {
		return
	}
	h.notFound(w, r)
}

// Exists reports whether the source holds a file for the request path.
func (h *Handler) Exists(r *http.Request) bool {
	rel, ok := RelPath(h.opts.Prefix, r.URL.Path)
	if !ok {
		return false
	}
	f, err := h.src.Open(r.Context(), rel)
	if err != nil {
		return false
	}
	f.Close()
	return true
}

// serve writes the file name and reports whether it existed.
func (h *Handler) serve(w http.ResponseWriter, r *http.Request, name string) bool {
	f, err := h.src.Open(r.Context(), name)
	if err != nil {
		if !errors.Is(err, ErrNotExist) {
			h.opts.Logger.Warn("static file unavailable", "file", name, "error", err)
		}
		return false
	}
	defer f.Close()

	if cc := h.opts.Cache.header(name); cc != "" {
		w.Header().Set("Cache-Control", cc)
	}
	for key, value := range h.opts.Headers {
		w.Header().Set(key, value)
	}
	if f.ContentType != "" {
		w.Header().Set("Content-Type", f.ContentType)
	}

	if rs, ok := f.Body.(io.ReadSeeker); ok {
		http.ServeContent(w, r, name, f.ModTime, rs)
		return true
	}

	if w.Header().Get("Content-Type") == "" {
		if ct := mime.TypeByExtension(path.Ext(name)); ct != "" {
			w.Header().Set("Content-Type", ct)
		} else {
			w.Header().Set("Content-Type", "application/octet-stream")
		}
	}
	if f.Size >= 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(f.Size, 10))
	}
	if !f.ModTime.IsZero() {
		w.Header().Set("Last-Modified", f.ModTime.UTC().Format(http.TimeFormat))
	}
	w.WriteHeader(http.StatusOK)
	if r.Method != http.MethodHead {
		if _, err := io.Copy(w, f.Body); err != nil {
			h.opts.Logger.Debug("static copy aborted", "file", name, "error", err)
		}
	}
	return true
}

func (h *Handler) notFound(w http.ResponseWriter, r *http.Request) {
	if h.opts.NotFound != nil {
		h.opts.NotFound.ServeHTTP(w, r)
		return
	}
	http.NotFound(w, r)
}

func acceptsHTML(r *http.Request) bool {
	if r.Method != http.MethodGet {
		return false
	}
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "text/html") || strings.Contains(accept, "*/*")
}
