package cube

import (
	"strconv"
	"strings"
	"time"
)

// Kind is the value kind of a level's members.
type Kind int

const (
	// KindObject is opaque: members stay strings.
	KindObject Kind = iota
	KindString
	KindBool
	KindInt
	KindFloat
	KindLocalDate
	KindLocalDateTime
	KindZonedDateTime
)

var kindNames = map[Kind]string{
	KindObject:        "object",
	KindString:        "string",
	KindBool:          "boolean",
	KindInt:           "int",
	KindFloat:         "double",
	KindLocalDate:     "localDate",
	KindLocalDateTime: "localDateTime",
	KindZonedDateTime: "zonedDateTime",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// IsTemporal reports whether members of this kind are dates or timestamps.
func (k Kind) IsTemporal() bool {
	return k == KindLocalDate || k == KindLocalDateTime || k == KindZonedDateTime
}

// LevelType is a level's value-type tag. It only drives how member names
// are coerced when a response is materialized.
type LevelType struct {
	Kind     Kind
	Pattern  string // Java-style date pattern, e.g. "yyyy-MM-dd"
	Nullable bool
	Tag      string // the tag as reported by the engine
}

// ParseLevelType parses an engine type tag such as "int", "nullable long",
// "String" or "LocalDate[yyyy-MM-dd]". Unknown or empty tags yield
// KindObject.
func ParseLevelType(tag string) LevelType {
	t := LevelType{Tag: tag}
	clean := strings.TrimSpace(tag)
	if rest, ok := strings.CutPrefix(clean, "nullable "); ok {
		t.Nullable = true
		clean = strings.TrimSpace(rest)
	}

	base := clean
	if open := strings.IndexByte(clean, '['); open >= 0 && strings.HasSuffix(clean, "]") {
		base = clean[:open]
		t.Pattern = clean[open+1 : len(clean)-1]
	}

	switch strings.ToLower(base) {
	case "string":
		t.Kind = KindString
	case "boolean", "bool":
		t.Kind = KindBool
	case "int", "integer", "long", "short":
		t.Kind = KindInt
	case "double", "float", "decimal":
		t.Kind = KindFloat
	case "localdate":
		t.Kind = KindLocalDate
	case "localdatetime":
		t.Kind = KindLocalDateTime
	case "zoneddatetime":
		t.Kind = KindZonedDateTime
	default:
		t.Kind = KindObject
	}
	return t
}

// Coerce converts a raw member name to the level's Go value: int64,
// float64, bool or time.Time. A member that does not parse (an "N/A" member
// of a date level, say) is returned untouched.
func (t LevelType) Coerce(raw string) any {
	switch t.Kind {
	case KindInt:
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return n
		}
	case KindFloat:
		if f, err := strconv.ParseFloat(raw, 64); err == nil {
			return f
		}
	case KindBool:
		if b, err := strconv.ParseBool(raw); err == nil {
			return b
		}
	case KindLocalDate, KindLocalDateTime, KindZonedDateTime:
		layout, ok := t.Layout()
		if !ok {
			return raw
		}
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts
		}
	}
	return raw
}

// Layout returns the Go time layout for a temporal level. The second result
// is false when the level is not temporal or its pattern uses a field with
// no Go equivalent.
func (t LevelType) Layout() (string, bool) {
	if !t.Kind.IsTemporal() {
		return "", false
	}
	if t.Pattern == "" {
		switch t.Kind {
		case KindLocalDate:
			return time.DateOnly, true
		case KindLocalDateTime:
			return "2006-01-02T15:04:05", true
		default:
			return time.RFC3339, true
		}
	}
	return JavaLayout(t.Pattern)
}

// javaFields maps a run of one Java pattern letter, keyed by letter and run
// length, to the Go layout element. Length 0 is the fallback for any run
// length not listed. MMM reads a numeric month, as engines render it.
var javaFields = map[byte]map[int]string{
	'y': {2: "06", 0: "2006"},
	'u': {2: "06", 0: "2006"},
	'M': {1: "1", 2: "01", 3: "01", 0: "January"},
	'd': {1: "2", 0: "02"},
	'H': {0: "15"},
	'h': {1: "3", 0: "03"},
	'm': {1: "4", 0: "04"},
	's': {1: "5", 0: "05"},
	'a': {0: "PM"},
	'E': {4: "Monday", 0: "Mon"},
	'X': {1: "Z07", 2: "Z0700", 0: "Z07:00"},
	'x': {1: "-07", 2: "-0700", 0: "-07:00"},
	'Z': {0: "-0700"},
	'z': {0: "MST"},
}

// JavaLayout translates a Java DateTimeFormatter pattern ("yyyy-MM-dd'T'HH:mm")
// into a Go reference layout. Quoted text is copied literally and a run of
// 'S' becomes fractional seconds.
func JavaLayout(pattern string) (string, bool) {
	var out strings.Builder
	for i := 0; i < len(pattern); {
		c := pattern[i]

		if c == '\'' {
			end := i + 1
			for end < len(pattern) && pattern[end] != '\'' {
				end++
			}
			if end == i+1 {
				out.WriteByte('\'') // '' is an escaped quote
			} else {
				out.WriteString(pattern[i+1 : end])
			}
			i = end + 1
			continue
		}

		if !isASCIILetter(c) {
			out.WriteByte(c)
			i++
			continue
		}

		run := 1
		for i+run < len(pattern) && pattern[i+run] == c {
			run++
		}
		i += run

		if c == 'S' {
			out.WriteString(strings.Repeat("0", run))
			continue
		}
		byLen, ok := javaFields[c]
		if !ok {
			return "", false
		}
		elem, ok := byLen[run]
		if !ok {
			elem = byLen[0]
		}
		out.WriteString(elem)
	}
	return out.String(), true
}

func isASCIILetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
