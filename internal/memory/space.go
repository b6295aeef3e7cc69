// Package memory provides read access to the address space of a target
// executable, either as a static image on disk or as a live process.
package memory

import (
	"errors"
	"fmt"
	"sort"
)

// Errors returned by address spaces.
var (
	ErrUnmapped     = errors.New("memory: address not mapped")
	ErrUnterminated = errors.New("memory: unterminated string")
	ErrUnsupported  = errors.New("memory: not supported on this platform")
)

// Space reads bytes at virtual addresses of the target.
//
// ReadAt follows io.ReaderAt semantics: when fewer than len(p) bytes are
// returned the error explains why.
type Space interface {
	ReadAt(p []byte, addr uint64) (int, error)
}

// Section is a named, contiguous range of the address space.
type Section struct {
	Name  string
	Start uint64
	Data  []byte
}

// End returns the first address past the section.
func (s Section) End() uint64 {
	return s.Start + uint64(len(s.Data))
}

// Contains reports whether addr lies inside the section.
func (s Section) Contains(addr uint64) bool {
	return addr >= s.Start && addr < s.End()
}

// Sparse is an address space made of non-overlapping sections held in memory.
// Images loaded from disk and synthetic spaces built by tests are both Sparse.
type Sparse struct {
	sections []Section // sorted by Start
}

// NewSparse returns an empty address space.
func NewSparse() *Sparse {
	return &Sparse{}
}

// Map adds a section at base. Overlapping an existing section is an error.
func (s *Sparse) Map(name string, base uint64, data []byte) error {
	added := Section{Name: name, Start: base, Data: data}
	for _, sec := range s.sections {
		if added.Start < sec.End() && sec.Start < added.End() {
			return fmt.Errorf("memory: section %q [0x%x, 0x%x) overlaps %q", name, added.Start, added.End(), sec.Name)
		}
	}
	s.sections = append(s.sections, added)
	sort.Slice(s.sections, func(i, j int) bool {
		return s.sections[i].Start < s.sections[j].Start
	})
	return nil
}

// Section returns the first section with the given name.
func (s *Sparse) Section(name string) (Section, bool) {
	for _, sec := range s.sections {
		if sec.Name == name {
			return sec, true
		}
	}
	return Section{}, false
}

// Sections returns the mapped sections ordered by address.
func (s *Sparse) Sections() []Section {
	out := make([]Section, len(s.sections))
	copy(out, s.sections)
	return out
}

// ReadAt implements Space. Reads never cross a section boundary.
func (s *Sparse) ReadAt(p []byte, addr uint64) (int, error) {
	i := sort.Search(len(s.sections), func(i int) bool {
		return s.sections[i].End() > addr
	})
	if i == len(s.sections) || !s.sections[i].Contains(addr) {
		return 0, fmt.Errorf("%w: 0x%x", ErrUnmapped, addr)
	}
	sec := s.sections[i]
	n := copy(p, sec.Data[addr-sec.Start:])
	if n < len(p) {
		return n, fmt.Errorf("%w: 0x%x", ErrUnmapped, sec.End())
	}
	return n, nil
}
