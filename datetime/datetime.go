// Package datetime parses date strings described by strftime-style formats.
package datetime

import (
	"strings"
	"time"
	"unicode"

	"github.com/pkg/errors"

	"github.com/cube2222/octogeo/octosql"
)

type AmbiguousPolicy string

const (
	// AmbiguousRaise fails the query on a wall clock time that occurs twice in the time zone.
	AmbiguousRaise    AmbiguousPolicy = "raise"
	AmbiguousEarliest AmbiguousPolicy = "earliest"
	AmbiguousLatest   AmbiguousPolicy = "latest"
	AmbiguousNull     AmbiguousPolicy = "null"
)

type Options struct {
	Format string
	// Strict makes unparsable strings a ParseError instead of a null.
	Strict    bool
	Ambiguous AmbiguousPolicy
	// Location is an IANA time zone name used for formats without a zone. Empty means UTC.
	Location string
	Cache    bool
}

func (o Options) String() string {
	var sb strings.Builder
	sb.WriteString(o.Format)
	if o.Strict {
		sb.WriteString(", strict")
	}
	if o.Ambiguous != "" {
		sb.WriteString(", ambiguous=")
		sb.WriteString(string(o.Ambiguous))
	}
	if o.Location != "" {
		sb.WriteString(", location=")
		sb.WriteString(o.Location)
	}
	return sb.String()
}

var directives = map[byte]string{
	'Y': "2006",
	'y': "06",
	'm': "01",
	'd': "02",
	'e': "_2",
	'H': "15",
	'I': "03",
	'p': "PM",
	'M': "04",
	'S': "05",
	'f': "000000",
	'b': "Jan",
	'h': "Jan",
	'B': "January",
	'a': "Mon",
	'A': "Monday",
	'j': "002",
	'z': "-0700",
	'Z': "MST",
	'F': "2006-01-02",
	'T': "15:04:05",
	'D': "01/02/06",
	'R': "15:04",
}

// layoutTokens are the Go layout elements that literal text could form by accident.
var layoutTokens = []string{"January", "Jan", "Monday", "Mon", "MST", "PM", "pm", "Z07", "__2", "_2"}

// Layout converts a strftime-style format into a Go time layout.
// Go layouts can't escape literals, so literal text that would be read as a layout element is rejected.
func Layout(format string) (string, error) {
	var sb strings.Builder
	// directiveAt maps each layout byte to the directive that produced it, -1 for literals.
	var directiveAt []int
	for i := 0; i < len(format); i++ {
		c := format[i]
		if c != '%' {
			if unicode.IsDigit(rune(c)) {
				return "", errors.Errorf("literal digits aren't supported in formats: %q", format)
			}
			sb.WriteByte(c)
			directiveAt = append(directiveAt, -1)
			continue
		}
		i++
		if i == len(format) {
			return "", errors.Errorf("format ends with a lone %%: %q", format)
		}
		if format[i] == '%' {
			sb.WriteByte('%')
			directiveAt = append(directiveAt, -1)
			continue
		}
		layout, ok := directives[format[i]]
		if !ok {
			return "", errors.Errorf("unsupported directive %%%c in format %q", format[i], format)
		}
		sb.WriteString(layout)
		for range layout {
			directiveAt = append(directiveAt, i)
		}
	}

	out := sb.String()
	for pos := range out {
		for _, token := range layoutTokens {
			if !strings.HasPrefix(out[pos:], token) {
				continue
			}
			for j := pos; j < pos+len(token); j++ {
				if directiveAt[j] == -1 || directiveAt[j] != directiveAt[pos] {
					return "", errors.Errorf("literal text in format %q would be read as the time layout element %q", format, token)
				}
			}
		}
	}
	return out, nil
}

func hasZone(layout string) bool {
	return strings.Contains(layout, "-0700") || strings.Contains(layout, "MST")
}

// NewParser validates the options and returns a parser of single strings.
// With Strict unset, unparsable strings produce null values.
func NewParser(options Options) (func(s string) (octosql.Value, error), error) {
	layout, err := Layout(options.Format)
	if err != nil {
		return nil, octosql.WrapParseError(err, "invalid time format")
	}
	location := time.UTC
	if options.Location != "" {
		if location, err = time.LoadLocation(options.Location); err != nil {
			return nil, octosql.WrapParseError(err, "invalid time zone")
		}
	}
	policy := options.Ambiguous
	if policy == "" {
		policy = AmbiguousRaise
	}
	switch policy {
	case AmbiguousRaise, AmbiguousEarliest, AmbiguousLatest, AmbiguousNull:
	default:
		return nil, octosql.ParseErrorf("invalid ambiguous time policy: %s", policy)
	}
	checkAmbiguity := location != time.UTC && !hasZone(layout)

	return func(s string) (octosql.Value, error) {
		t, err := time.ParseInLocation(layout, s, location)
		if err != nil {
			if options.Strict {
				return octosql.ZeroValue, octosql.ParseErrorf("couldn't parse %q with format %q", s, options.Format)
			}
			return octosql.NewNull(), nil
		}
		if !checkAmbiguity {
			return octosql.NewTime(t), nil
		}
		other, ok := alternative(t)
		if !ok {
			return octosql.NewTime(t), nil
		}
		switch policy {
		case AmbiguousEarliest:
			if other.Before(t) {
				t = other
			}
		case AmbiguousLatest:
			if other.After(t) {
				t = other
			}
		case AmbiguousNull:
			return octosql.NewNull(), nil
		default:
			return octosql.ZeroValue, octosql.ParseErrorf("ambiguous time %q in %s", s, location)
		}
		return octosql.NewTime(t), nil
	}, nil
}

// alternative returns the other instant with the same wall clock, if the wall clock of t occurs twice.
func alternative(t time.Time) (time.Time, bool) {
	_, offset := t.Zone()
	for _, shift := range []time.Duration{-3 * time.Hour, 3 * time.Hour} {
		_, otherOffset := t.Add(shift).Zone()
		if otherOffset == offset {
			continue
		}
		candidate := t.Add(time.Duration(offset-otherOffset) * time.Second)
		if _, candidateOffset := candidate.Zone(); candidateOffset == otherOffset && sameWallClock(candidate, t) {
			return candidate, true
		}
	}
	return time.Time{}, false
}

func sameWallClock(a, b time.Time) bool {
	y1, mo1, d1 := a.Date()
	y2, mo2, d2 := b.Date()
	h1, mi1, s1 := a.Clock()
	h2, mi2, s2 := b.Clock()
	return y1 == y2 && mo1 == mo2 && d1 == d2 && h1 == h2 && mi1 == mi2 && s1 == s2 && a.Nanosecond() == b.Nanosecond()
}
