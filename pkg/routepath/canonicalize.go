package routepath

import (
	"errors"
	"net/url"
	"strings"
)

// Request path canonicalization errors.
var (
	ErrBackslashInPath       = errors.New("path contains backslash")
	ErrNullByteInPath        = errors.New("path contains null byte")
	ErrInvalidPercentEscape  = errors.New("invalid percent escape sequence")
	ErrPathEscapesRoot       = errors.New("path escapes root via ..")
	ErrEncodedSlashInSegment = errors.New("encoded slash (%2F) in path segment")
)

// CanonicalizePath normalizes an incoming request path before it is matched
// against bound patterns:
//   - empty input becomes "/"
//   - repeated slashes collapse (/users//1 → /users/1)
//   - "." segments are dropped and ".." segments pop their parent
//   - a trailing slash is removed except for the root
//
// Paths containing a backslash, a NUL byte, a malformed percent escape, or a
// ".." that would climb above the root are rejected.
func CanonicalizePath(input string) (string, error) {
	if input == "" {
		return "/", nil
	}
	if strings.Contains(input, "\\") {
		return "", ErrBackslashInPath
	}
	if strings.Contains(input, "\x00") || strings.Contains(strings.ToUpper(input), "%00") {
		return "", ErrNullByteInPath
	}
	if strings.Contains(input, "%") {
		if err := validatePercentEscapes(input); err != nil {
			return "", err
		}
	}

	var out []string
	for _, seg := range strings.Split(input, "/") {
		switch seg {
		case "", ".":
		case "..":
			if len(out) == 0 {
				return "", ErrPathEscapesRoot
			}
			out = out[:len(out)-1]
		default:
			out = append(out, seg)
		}
	}
	return "/" + strings.Join(out, "/"), nil
}

func validatePercentEscapes(path string) error {
	for i := 0; i < len(path); i++ {
		if path[i] != '%' {
			continue
		}
		if i+2 >= len(path) || !isHexDigit(path[i+1]) || !isHexDigit(path[i+2]) {
			return ErrInvalidPercentEscape
		}
		i += 2
	}
	return nil
}

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

// DecodeSegment percent-decodes a single matched path segment. A segment that
// decodes to something containing "/" is rejected so a parameter can never
// smuggle an extra path level.
func DecodeSegment(segment string) (string, error) {
	decoded, err := url.PathUnescape(segment)
	if err != nil {
		return "", ErrInvalidPercentEscape
	}
	if strings.Contains(decoded, "/") {
		return "", ErrEncodedSlashInSegment
	}
	return decoded, nil
}
