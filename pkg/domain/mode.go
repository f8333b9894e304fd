package domain

import (
	"regexp"
	"sort"
	"sync"
)

// Family identifies a microscope family. Each family has its own mode table.
type Family string

const (
	FamilySPARC  Family = "sparc"
	FamilySPARC2 Family = "sparc2"
	FamilySECOM  Family = "secom"
)

// Well-known mode names with dedicated behavior.
const (
	ModeChamberView     = "chamber-view"
	ModeAngularSpectrum = "ek"
	ModeAngleResolved   = "ar"
	ModeFineAlign       = "fine-align"
)

// Metadata keys of selectors with favourite positions.
const (
	MDFavPosActive       = "FAV_POS_ACTIVE"
	MDFavPosDeactive     = "FAV_POS_DEACTIVE"
	MDFavPosActiveDest   = "FAV_POS_ACTIVE_DEST"
	MDFavPosDeactiveDest = "FAV_POS_DEACTIVE_DEST"
)

// Mode is a named target configuration of the optical path.
type Mode struct {
	Name string
	// DetectorPattern is a regular expression matched against the whole role of the target detector.
	DetectorPattern string
	// Align marks alignment modes. Axis values they displace are restored when leaving them.
	Align bool
	// Axes maps a component role to the desired value of each of its axes.
	Axes map[string]map[string]ValueSpec
}

// Roles returns the component roles referenced by the mode, sorted.
func (m Mode) Roles() []string {
	roles := make([]string, 0, len(m.Axes))
	for role := range m.Axes {
		roles = append(roles, role)
	}
	sort.Strings(roles)
	return roles
}

// ModeTable is the ordered set of modes of one microscope family.
// The order is the priority used when inferring a mode from a request.
type ModeTable struct {
	Family Family
	Modes  []Mode
}

// Lookup returns the mode with the given name.
func (t ModeTable) Lookup(name string) (Mode, bool) {
	for _, m := range t.Modes {
		if m.Name == name {
			return m, true
		}
	}
	return Mode{}, false
}

// Names returns the mode names in table order.
func (t ModeTable) Names() []string {
	names := make([]string, 0, len(t.Modes))
	for _, m := range t.Modes {
		names = append(names, m.Name)
	}
	return names
}

// IsAlign reports whether name is an alignment mode of the table.
func (t ModeTable) IsAlign(name string) bool {
	m, ok := t.Lookup(name)
	return ok && m.Align
}

var patternCache sync.Map // string -> *regexp.Regexp

// MatchRole reports whether role fully matches pattern.
// An empty role never matches. Invalid patterns never match.
func MatchRole(pattern, role string) bool {
	if role == "" {
		return false
	}
	re, err := compileRole(pattern)
	if err != nil {
		return false
	}
	return re.MatchString(role)
}

// ValidatePattern checks that pattern is a valid role expression.
func ValidatePattern(pattern string) error {
	_, err := compileRole(pattern)
	return err
}

func compileRole(pattern string) (*regexp.Regexp, error) {
	if re, ok := patternCache.Load(pattern); ok {
		return re.(*regexp.Regexp), nil
	}
	re, err := regexp.Compile(`^(?:` + pattern + `)$`)
	if err != nil {
		return nil, err
	}
	patternCache.Store(pattern, re)
	return re, nil
}
