package domain

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
)

// SpecKind enumerates the ways a mode table declares an axis value.
type SpecKind int

const (
	// SpecLiteral is a plain value (symbolic name, position key or number).
	SpecLiteral SpecKind = iota
	// SpecMetadata reads the value from the component's own metadata.
	SpecMetadata
	// SpecFirstOf holds ordered alternatives; the first that resolves wins.
	SpecFirstOf
	// SpecGratingNotMirror selects any grating that is not the mirror.
	SpecGratingNotMirror
)

const (
	// MetadataPrefix introduces a metadata reference in mode files.
	MetadataPrefix = "MD:"
	// GratingNotMirrorToken is the textual form of the not-mirror sentinel.
	GratingNotMirrorToken = "GRATING_NOT_MIRROR"
	// GratingMirror is the symbolic value of the zero-order grating position.
	GratingMirror = "mirror"
)

// ValueSpec is the desired value of one axis in a mode.
type ValueSpec struct {
	Kind         SpecKind
	Value        any
	Key          string
	Alternatives []ValueSpec
}

// Literal returns a spec for a fixed value.
func Literal(v any) ValueSpec {
	return ValueSpec{Kind: SpecLiteral, Value: v}
}

// FromMetadata returns a spec reading metadata key from the component.
func FromMetadata(key string) ValueSpec {
	return ValueSpec{Kind: SpecMetadata, Key: key}
}

// FirstOf returns a spec trying each alternative in order.
func FirstOf(alts ...ValueSpec) ValueSpec {
	return ValueSpec{Kind: SpecFirstOf, Alternatives: alts}
}

// GratingNotMirror returns the not-mirror sentinel spec.
func GratingNotMirror() ValueSpec {
	return ValueSpec{Kind: SpecGratingNotMirror}
}

// ParseValueSpec converts a raw value from a mode file into a ValueSpec.
// Strings starting with "MD:" are metadata references, the sentinel token maps
// to SpecGratingNotMirror and lists become ordered alternatives.
func ParseValueSpec(raw any) ValueSpec {
	switch v := raw.(type) {
	case ValueSpec:
		return v
	case string:
		if v == GratingNotMirrorToken {
			return GratingNotMirror()
		}
		if key, ok := strings.CutPrefix(v, MetadataPrefix); ok {
			return FromMetadata(key)
		}
		return Literal(v)
	case []any:
		alts := make([]ValueSpec, 0, len(v))
		for _, item := range v {
			alts = append(alts, ParseValueSpec(item))
		}
		return FirstOf(alts...)
	case []string:
		alts := make([]ValueSpec, 0, len(v))
		for _, item := range v {
			alts = append(alts, ParseValueSpec(item))
		}
		return FirstOf(alts...)
	default:
		return Literal(v)
	}
}

// String renders the spec the way it is written in mode files.
func (s ValueSpec) String() string {
	switch s.Kind {
	case SpecMetadata:
		return MetadataPrefix + s.Key
	case SpecGratingNotMirror:
		return GratingNotMirrorToken
	case SpecFirstOf:
		parts := make([]string, 0, len(s.Alternatives))
		for _, a := range s.Alternatives {
			parts = append(parts, a.String())
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return fmt.Sprint(s.Value)
	}
}

// SameValue compares two axis values. Numbers of different Go types
// (for instance an int key read back from JSON as float64) compare by value.
func SameValue(a, b any) bool {
	fa, aNum := toFloat(a)
	fb, bNum := toFloat(b)
	if aNum && bNum {
		return fa == fb
	}
	if aNum != bNum {
		return false
	}
	return reflect.DeepEqual(a, b)
}

// ValueContains reports whether a choice value designates name, either directly
// or as a member of a collection of destinations.
func ValueContains(v any, name string) bool {
	switch t := v.(type) {
	case string:
		return t == name
	case []string:
		for _, s := range t {
			if s == name {
				return true
			}
		}
	case []any:
		for _, item := range t {
			if ValueContains(item, name) {
				return true
			}
		}
	case map[string]bool:
		return t[name]
	}
	return false
}

// ToFloat converts a numeric axis value to float64.
func ToFloat(v any) (float64, bool) {
	return toFloat(v)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}
