package hook

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dbsmedya/rttidump/internal/memory"
)

// Errors returned by the signature locator.
var (
	ErrSectionNotFound = errors.New("hook: section not found")
	ErrPatternNotFound = errors.New("hook: pattern not found")
	ErrEmptyPattern    = errors.New("hook: empty pattern")
)

// CodeSection is the section searched for function signatures.
const CodeSection = ".text"

// Pattern is a byte signature where some positions match any byte.
type Pattern struct {
	bytes []byte
	mask  []bool // true where the byte must match
}

// ParsePattern parses space-separated hex bytes; "?" or "??" is a wildcard.
func ParsePattern(s string) (Pattern, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return Pattern{}, ErrEmptyPattern
	}
	p := Pattern{
		bytes: make([]byte, len(fields)),
		mask:  make([]bool, len(fields)),
	}
	fixed := 0
	for i, f := range fields {
		if f == "?" || f == "??" {
			continue
		}
		v, err := strconv.ParseUint(f, 16, 8)
		if err != nil {
			return Pattern{}, fmt.Errorf("hook: invalid pattern byte %q at position %d", f, i)
		}
		p.bytes[i] = byte(v)
		p.mask[i] = true
		fixed++
	}
	if fixed == 0 {
		return Pattern{}, fmt.Errorf("hook: pattern %q has no fixed bytes", s)
	}
	return p, nil
}

// MustParsePattern is like ParsePattern but panics on error.
func MustParsePattern(s string) Pattern {
	p, err := ParsePattern(s)
	if err != nil {
		panic(err)
	}
	return p
}

// Len returns the pattern length in bytes.
func (p Pattern) Len() int {
	return len(p.bytes)
}

// String renders the pattern in the form accepted by ParsePattern.
func (p Pattern) String() string {
	parts := make([]string, len(p.bytes))
	for i, b := range p.bytes {
		if p.mask[i] {
			parts[i] = fmt.Sprintf("%02X", b)
		} else {
			parts[i] = "?"
		}
	}
	return strings.Join(parts, " ")
}

// Match reports whether data starts with the pattern.
func (p Pattern) Match(data []byte) bool {
	if len(data) < len(p.bytes) {
		return false
	}
	for i, b := range p.bytes {
		if p.mask[i] && data[i] != b {
			return false
		}
	}
	return true
}

// Find returns the offset of the first match in data, or -1.
func (p Pattern) Find(data []byte) int {
	for i := 0; i+len(p.bytes) <= len(data); i++ {
		if p.Match(data[i:]) {
			return i
		}
	}
	return -1
}

// LookupError reports a signature that could not be resolved.
type LookupError struct {
	Name string
	Err  error
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("hook: failed to locate %s: %v", e.Name, e.Err)
}

func (e *LookupError) Unwrap() error {
	return e.Err
}

// Sections is implemented by address spaces that know their section table.
type Sections interface {
	Section(name string) (memory.Section, bool)
}

// Locator finds function addresses by signature in an image's code section.
type Locator struct {
	space   Sections
	section string
}

// NewLocator returns a Locator searching the code section of space.
func NewLocator(space Sections) *Locator {
	return &Locator{space: space, section: CodeSection}
}

// FindSection returns the named section.
func (l *Locator) FindSection(name string) (memory.Section, error) {
	sec, ok := l.space.Section(name)
	if !ok {
		return memory.Section{}, fmt.Errorf("%w: %s", ErrSectionNotFound, name)
	}
	return sec, nil
}

// Locate returns the address of the first match of pattern. Failures are
// *LookupError naming the signature.
func (l *Locator) Locate(name, pattern string) (uint64, error) {
	p, err := ParsePattern(pattern)
	if err != nil {
		return 0, &LookupError{Name: name, Err: err}
	}
	sec, err := l.FindSection(l.section)
	if err != nil {
		return 0, &LookupError{Name: name, Err: err}
	}
	off := p.Find(sec.Data)
	if off < 0 {
		return 0, &LookupError{Name: name, Err: ErrPatternNotFound}
	}
	return sec.Start + uint64(off), nil
}

// Signature names a pattern to look up.
type Signature struct {
	Name    string
	Pattern string
}

// Match is a resolved signature.
type Match struct {
	Name string
	Addr uint64
}

// LocateAll resolves every signature and stops at the first failure.
func (l *Locator) LocateAll(sigs []Signature) ([]Match, error) {
	matches := make([]Match, 0, len(sigs))
	for _, sig := range sigs {
		addr, err := l.Locate(sig.Name, sig.Pattern)
		if err != nil {
			return matches, err
		}
		matches = append(matches, Match{Name: sig.Name, Addr: addr})
	}
	return matches, nil
}
