package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// DefaultIDPattern matches a PDB entry code: a digit followed by three alphanumerics.
const DefaultIDPattern = `([0-9][A-Za-z0-9]{3})`

// ErrInvalidPattern is returned when the identifier pattern cannot be compiled.
var ErrInvalidPattern = errors.New("invalid identifier pattern")

// ItemID is a canonical, upper-case structure identifier (e.g. "1ABC").
type ItemID string

func (id ItemID) String() string { return string(id) }

// Extractor derives an ItemID from a free-form name such as a file stem.
type Extractor struct {
	re *regexp.Regexp
}

// NewExtractor compiles pattern. An empty pattern selects DefaultIDPattern.
func NewExtractor(pattern string) (*Extractor, error) {
	if pattern == "" {
		pattern = DefaultIDPattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPattern, err)
	}
	return &Extractor{re: re}, nil
}

// Extract returns the first identifier found in name, upper-cased.
// The first capture group is used when the pattern has one.
func (e *Extractor) Extract(name string) (ItemID, bool) {
	m := e.re.FindStringSubmatch(strings.ToUpper(name))
	if m == nil {
		return "", false
	}
	id := m[0]
	if len(m) > 1 {
		id = m[1]
	}
	if id == "" {
		return "", false
	}
	return ItemID(strings.ToUpper(id)), true
}
