package logging

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// 24-bit colors of the console theme.
const (
	colorReset  = "\033[0m"
	colorBlue   = "\033[38;2;52;177;235m"
	colorRed    = "\033[38;2;235;97;52m"
	colorYellow = "\033[38;2;235;189;52m"
	colorGreen  = "\033[38;2;52;235;155m"
)

// prefixWidth pads the column before the ">" marker.
const prefixWidth = 5

// ConsoleHandler renders records as console lines:
//
//	  |  GET   > /users/:id
//	  |  MW    > auth
//	  |  WARN  > duplicate static route | file=get/a.go
//
// Records carrying "method" and "route" attributes print the route key.
// "route bound" lines are green, errors are red, warnings yellow and
// everything else blue.
type ConsoleHandler struct {
	w      io.Writer
	level  slog.Leveler
	color  bool
	attrs  []slog.Attr
	groups []string
	mu     *sync.Mutex
}

// NewConsoleHandler creates a console handler. Colors are written when color
// is true.
func NewConsoleHandler(w io.Writer, level slog.Leveler, color bool) *ConsoleHandler {
	if level == nil {
		level = slog.LevelInfo
	}
	return &ConsoleHandler{
		w:     w,
		level: level,
		color: color,
		mu:    &sync.Mutex{},
	}
}

// Enabled reports whether the handler handles records at the given level.
func (h *ConsoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle formats and writes the log record.
func (h *ConsoleHandler) Handle(_ context.Context, r slog.Record) error {
	attrs := make([]slog.Attr, 0, len(h.attrs)+r.NumAttrs())
	attrs = append(attrs, h.attrs...)
	r.Attrs(func(a slog.Attr) bool {
		attrs = append(attrs, h.resolveAttr(a))
		return true
	})

	var method, route, middleware string
	rest := attrs[:0:0]
	for _, a := range attrs {
		switch a.Key {
		case "method":
			method = a.Value.String()
		case "route":
			route = a.Value.String()
		case "middleware":
			middleware = a.Value.String()
		case "component", "":
		default:
			rest = append(rest, a)
		}
	}

	var prefix, subject string
	switch {
	case method != "" && route != "":
		prefix, subject = method, route
	case middleware != "":
		prefix, subject = "mw", middleware
	default:
		prefix, subject = levelString(r.Level), r.Message
	}

	var buf bytes.Buffer
	buf.WriteString(h.paint(h.markerColor(r.Level), "  |  "+pad(strings.ToUpper(prefix))+" >"))
	buf.WriteByte(' ')

	line := subject
	if subject != r.Message && r.Message != "route bound" && r.Message != "middleware registered" {
		line += "  " + r.Message
	}
	if len(rest) > 0 {
		var sb strings.Builder
		sb.WriteString(" |")
		for _, a := range rest {
			sb.WriteByte(' ')
			sb.WriteString(a.Key)
			sb.WriteByte('=')
			sb.WriteString(formatValue(a.Value))
		}
		line += sb.String()
	}
	buf.WriteString(h.paint(messageColor(r), line))
	buf.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.w.Write(buf.Bytes())
	return err
}

// WithAttrs returns a new handler with the given attributes added.
func (h *ConsoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newAttrs := make([]slog.Attr, len(h.attrs), len(h.attrs)+len(attrs))
	copy(newAttrs, h.attrs)
	for _, a := range attrs {
		newAttrs = append(newAttrs, h.resolveAttr(a))
	}
	clone := *h
	clone.attrs = newAttrs
	return &clone
}

// WithGroup returns a new handler with the given group name added.
func (h *ConsoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	newGroups := make([]string, len(h.groups)+1)
	copy(newGroups, h.groups)
	newGroups[len(h.groups)] = name

	clone := *h
	clone.groups = newGroups
	return &clone
}

func (h *ConsoleHandler) resolveAttr(a slog.Attr) slog.Attr {
	if len(h.groups) == 0 {
		return a
	}
	key := a.Key
	for i := len(h.groups) - 1; i >= 0; i-- {
		key = h.groups[i] + "." + key
	}
	return slog.Attr{Key: key, Value: a.Value}
}

func (h *ConsoleHandler) paint(color, s string) string {
	if !h.color {
		return s
	}
	return color + s + colorReset
}

func (h *ConsoleHandler) markerColor(level slog.Level) string {
	if level >= slog.LevelError {
		return colorRed
	}
	return colorBlue
}

func messageColor(r slog.Record) string {
	switch {
	case r.Level >= slog.LevelError:
		return colorRed
	case r.Level >= slog.LevelWarn:
		return colorYellow
	case r.Message == "route bound" || r.Message == "middleware registered":
		return colorGreen
	default:
		return colorBlue
	}
}

func pad(s string) string {
	if len(s) >= prefixWidth {
		return s
	}
	return s + strings.Repeat(" ", prefixWidth-len(s))
}

func levelString(level slog.Level) string {
	switch {
	case level < slog.LevelInfo:
		return "debug"
	case level < slog.LevelWarn:
		return "info"
	case level < slog.LevelError:
		return "warn"
	default:
		return "error"
	}
}

func formatValue(v slog.Value) string {
	switch v.Kind() {
	case slog.KindString:
		return v.String()
	case slog.KindTime:
		return v.Time().Format(time.RFC3339)
	case slog.KindDuration:
		return v.Duration().String()
	default:
		return fmt.Sprint(v.Any())
	}
}
