package routepath

import "strings"

// Pattern is a pre-split URL pattern such as "/users/:id".
type Pattern struct {
	raw      string
	segments []string
}

// Compile splits a URL pattern into segments for matching.
func Compile(pattern string) Pattern {
	return Pattern{raw: pattern, segments: splitSegments(pattern)}
}

// String returns the pattern as compiled.
func (p Pattern) String() string {
	return p.raw
}

// Params returns the parameter names in the order they appear.
func (p Pattern) Params() []string {
	var names []string
	for _, seg := range p.segments {
		if isParam(seg) {
			names = append(names, seg[1:])
		}
	}
	return names
}

// Match reports whether a canonical request path matches the pattern and
// returns the decoded parameter values. Each ":name" segment matches exactly
// one non-empty path segment; all other segments must match literally.
func (p Pattern) Match(path string) (map[string]string, bool) {
	parts := splitSegments(path)
	if len(parts) != len(p.segments) {
		return nil, false
	}

	var params map[string]string
	for i, seg := range p.segments {
		if isParam(seg) {
			value, err := DecodeSegment(parts[i])
			if err != nil {
				return nil, false
			}
			if params == nil {
				params = make(map[string]string, 2)
			}
			params[seg[1:]] = value
			continue
		}
		if seg != parts[i] {
			return nil, false
		}
	}
	return params, true
}

// IsDynamic reports whether a URL pattern has any ":param" segment.
func IsDynamic(pattern string) bool {
	for _, seg := range splitSegments(pattern) {
		if isParam(seg) {
			return true
		}
	}
	return false
}

// ToBraces rewrites ":id" segments into "{id}" for routers using brace
// placeholders.
func ToBraces(pattern string) string {
	segs := strings.Split(pattern, "/")
	for i, seg := range segs {
		if isParam(seg) {
			segs[i] = "{" + seg[1:] + "}"
		}
	}
	return strings.Join(segs, "/")
}

func isParam(seg string) bool {
	return len(seg) > 1 && seg[0] == ':'
}
