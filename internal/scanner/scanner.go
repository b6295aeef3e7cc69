package scanner

import (
	"github.com/dbsmedya/rttidump/internal/logger"
	"github.com/dbsmedya/rttidump/internal/rtti"
)

// Scanner inserts records into a Set together with everything they
// reference.
type Scanner struct {
	set *Set
	log *logger.Logger
}

// New returns a Scanner that fills set and logs each discovery at debug level.
func New(set *Set, log *logger.Logger) *Scanner {
	if log == nil {
		log = logger.NewNop()
	}
	return &Scanner{set: set, log: log}
}

// Set returns the scanner's discovered-set.
func (s *Scanner) Set() *Set {
	return s.set
}

// Visit adds t and every record reachable from it. A nil record is a no-op
// and a record already in the set is not expanded again, which makes Visit
// idempotent and terminates on reference cycles. An unknown kind panics with
// a *rtti.ContractError.
func (s *Scanner) Visit(t *rtti.Type) {
	if t == nil || !s.set.Add(t) {
		return
	}

	s.log.WithType(rtti.Describe(t), t.Kind().String(), t.Addr()).Debug("found type")

	switch t.Kind() {
	case rtti.KindContainer:
		c, _ := t.AsContainer()
		s.Visit(c.Item)
	case rtti.KindPointer:
		p, _ := t.AsPointer()
		s.Visit(p.Item)
	case rtti.KindAtom:
		a, _ := t.AsAtom()
		s.Visit(a.Base)
	case rtti.KindCompound:
		c, _ := t.AsCompound()
		for _, b := range c.Bases {
			s.Visit(b.Type)
		}
		for _, a := range c.Attrs {
			if a.IsCategory() {
				continue
			}
			s.Visit(a.Type)
		}
		for _, m := range c.MessageHandlers {
			s.Visit(m.Message)
		}
	case rtti.KindEnum, rtti.KindEnumFlags, rtti.KindPOD:
	default:
		panic(&rtti.ContractError{Op: "visit", Addr: t.Addr(), RawKind: uint8(t.Kind())})
	}
}

// Visit adds t and everything reachable from it to set without logging.
func Visit(t *rtti.Type, set *Set) {
	New(set, nil).Visit(t)
}
