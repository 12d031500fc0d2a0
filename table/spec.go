// Package table reads and writes keyed archives: sequences of (key, value)
// records stored in Kaldi-compatible text form.
//
// An archive is named by a specifier such as "ark:1.ali" or "ark,t:-".
package table

import (
	"strings"

	"github.com/pkg/errors"
)

var (
	// ErrFormat reports a malformed specifier or record.
	ErrFormat = errors.New("table: format error")
	// ErrNotFound reports a key missing from a random-access archive.
	ErrNotFound = errors.New("table: key not found")
)

// Spec is a parsed rspecifier or wspecifier.
type Spec struct {
	Name         string // rxfilename / wxfilename
	Text         bool
	Sorted       bool
	CalledSorted bool
	Permissive   bool
}

func parseSpec(s string, write bool) (Spec, error) {
	var spec Spec
	colon := strings.IndexByte(s, ':')
	if colon < 0 {
		return spec, errors.Wrapf(ErrFormat, "specifier %q has no type prefix", s)
	}
	opts := strings.Split(s[:colon], ",")
	if opts[0] != "ark" {
		return spec, errors.Wrapf(ErrFormat, "specifier %q: unsupported type %q", s, opts[0])
	}
	for _, o := range opts[1:] {
		switch o {
		case "t":
			spec.Text = true
		case "b":
			return spec, errors.Wrapf(ErrFormat, "specifier %q: binary archives are not supported", s)
		case "s":
			spec.Sorted = true
		case "cs":
			spec.CalledSorted = true
		case "p":
			spec.Permissive = true
		case "f", "nf", "o", "no", "ns", "ncs", "np":
			// accepted, no effect
		default:
			return spec, errors.Wrapf(ErrFormat, "specifier %q: unknown option %q", s, o)
		}
	}
	if write && (spec.Sorted || spec.CalledSorted || spec.Permissive) {
		return spec, errors.Wrapf(ErrFormat, "wspecifier %q: read-only option", s)
	}
	spec.Name = s[colon+1:]
	if strings.TrimSpace(spec.Name) == "" {
		return spec, errors.Wrapf(ErrFormat, "specifier %q has no filename", s)
	}
	return spec, nil
}

// ParseRspecifier parses an archive read specifier.
func ParseRspecifier(s string) (Spec, error) { return parseSpec(s, false) }

// ParseWspecifier parses an archive write specifier.
func ParseWspecifier(s string) (Spec, error) { return parseSpec(s, true) }
