package descriptor

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Kind tells which JSON shape a version value arrived in.
type Kind int

const (
	// KindUnknown covers a missing, null or non-primitive version.
	KindUnknown Kind = iota
	// KindString is a JSON string; it is used verbatim.
	KindString
	// KindNumeric is a JSON number such as 2 or 1.5.
	KindNumeric
	// KindOther is any other primitive (booleans).
	KindOther
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumeric:
		return "numeric"
	case KindOther:
		return "other"
	default:
		return "unknown"
	}
}

// Version is a descriptor version value. The zero value is an unknown version.
type Version struct {
	kind Kind
	text string
}

// StringVersion returns a version that was declared as a string.
func StringVersion(s string) Version { return Version{kind: KindString, text: s} }

// ParseVersion converts a decoded JSON value (or any Go primitive) into a
// Version.
func ParseVersion(raw any) Version {
	switch v := raw.(type) {
	case nil:
		return Version{}
	case Version:
		return v
	case string:
		return StringVersion(v)
	case json.Number:
		return numericVersion(string(v))
	case float64:
		return Version{kind: KindNumeric, text: formatFloat(v)}
	case float32:
		return Version{kind: KindNumeric, text: formatFloat(float64(v))}
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return Version{kind: KindNumeric, text: fmt.Sprint(v)}
	case bool:
		return Version{kind: KindOther, text: strconv.FormatBool(v)}
	default:
		return Version{}
	}
}

// Normalize is shorthand for ParseVersion(raw).Normalize().
func Normalize(raw any) string {
	return ParseVersion(raw).Normalize()
}

// Kind reports how the version was declared.
func (v Version) Kind() Kind { return v.kind }

// Known reports whether the descriptor declared a usable version.
func (v Version) Known() bool { return v.kind != KindUnknown }

// String returns the version text as declared.
func (v Version) String() string { return v.text }

// Normalize returns the dotted form of the version. String versions are
// returned unchanged; every other kind is split on "." and right-padded with
// "0" until it has three components. Existing components are never dropped.
// An unknown version normalizes to "".
func (v Version) Normalize() string {
	switch v.kind {
	case KindUnknown:
		return ""
	case KindString:
		return v.text
	}
	parts := strings.Split(v.text, ".")
	for len(parts) < 3 {
		parts = append(parts, "0")
	}
	return strings.Join(parts, ".")
}

// Semver parses the normalized version as a semantic version. A leading "v"
// is tolerated.
func (v Version) Semver() (*semver.Version, error) {
	if !v.Known() {
		return nil, fmt.Errorf("version is unknown")
	}
	return semver.NewVersion(strings.TrimPrefix(v.Normalize(), "v"))
}

// UnmarshalJSON accepts a string, number, boolean or null.
func (v *Version) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0, bytes.Equal(data, []byte("null")):
		*v = Version{}
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = StringVersion(s)
	case bytes.Equal(data, []byte("true")), bytes.Equal(data, []byte("false")):
		*v = Version{kind: KindOther, text: string(data)}
	case data[0] == '-' || (data[0] >= '0' && data[0] <= '9'):
		*v = numericVersion(string(data))
	default:
		// Objects and arrays carry no usable version.
		*v = Version{}
	}
	return nil
}

// MarshalJSON writes the version back in its declared shape.
func (v Version) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindString:
		return json.Marshal(v.text)
	case KindNumeric, KindOther:
		return []byte(v.text), nil
	default:
		return []byte("null"), nil
	}
}

func numericVersion(text string) Version {
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return Version{kind: KindNumeric, text: text}
	}
	return Version{kind: KindNumeric, text: formatFloat(f)}
}

// formatFloat renders f the shortest way that round-trips, so 2 becomes "2"
// and 1.50 becomes "1.5".
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
