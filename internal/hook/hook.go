// Package hook is the boundary between a source of type registrations and
// the scanner. The target's factory announces each record once and then
// signals that registration is complete; a Session turns those two events
// into a discovered-set and a frozen snapshot.
package hook

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/dbsmedya/rttidump/internal/logger"
	"github.com/dbsmedya/rttidump/internal/rtti"
	"github.com/dbsmedya/rttidump/internal/scanner"
)

// ErrIncomplete is returned by Wait when registration never completed.
var ErrIncomplete = errors.New("hook: registration did not complete")

// Listener receives registration events. OnTypeRegistered may be called from
// several goroutines; OnRegistrationComplete is called once, after the last
// registration.
type Listener interface {
	OnTypeRegistered(t *rtti.Type)
	OnRegistrationComplete()
}

// Session collects one scan. It owns the discovered-set, so separate runs
// never share state.
type Session struct {
	scanner *scanner.Scanner
	log     *logger.Logger

	registered atomic.Int64
	late       atomic.Int64

	once     sync.Once
	done     chan struct{}
	snapshot []*rtti.Type
	complete func(snapshot []*rtti.Type)
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// OnComplete sets a callback run once with the frozen snapshot.
func OnComplete(fn func(snapshot []*rtti.Type)) SessionOption {
	return func(s *Session) {
		s.complete = fn
	}
}

// NewSession returns a Session with an empty discovered-set.
func NewSession(log *logger.Logger, opts ...SessionOption) *Session {
	if log == nil {
		log = logger.NewNop()
	}
	s := &Session{
		scanner: scanner.New(scanner.NewSet(), log),
		log:     log,
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OnTypeRegistered scans t and everything it references. Registrations that
// arrive after completion are counted and dropped.
func (s *Session) OnTypeRegistered(t *rtti.Type) {
	if t == nil {
		return
	}
	select {
	case <-s.done:
		s.late.Add(1)
		s.log.WithType(rtti.Describe(t), t.Kind().String(), t.Addr()).Warn("registration after completion ignored")
		return
	default:
	}

	s.registered.Add(1)
	s.log.WithType(rtti.Describe(t), t.Kind().String(), t.Addr()).Debug("type registered")
	s.scanner.Visit(t)
}

// OnRegistrationComplete freezes the discovered-set. Only the first call
// has an effect.
func (s *Session) OnRegistrationComplete() {
	s.once.Do(func() {
		s.snapshot = s.scanner.Set().Snapshot()
		close(s.done)
		s.log.Infow("registration complete",
			"registered", s.registered.Load(),
			"discovered", len(s.snapshot),
		)
		if s.complete != nil {
			s.complete(s.snapshot)
		}
	})
}

// Done is closed once registration is complete.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Wait blocks until registration completes or ctx ends and returns the
// frozen snapshot.
func (s *Session) Wait(ctx context.Context) ([]*rtti.Type, error) {
	select {
	case <-s.done:
		return s.snapshot, nil
	case <-ctx.Done():
		return nil, errors.Join(ErrIncomplete, ctx.Err())
	}
}

// Snapshot returns the frozen snapshot, or nil before completion.
func (s *Session) Snapshot() []*rtti.Type {
	select {
	case <-s.done:
		return s.snapshot
	default:
		return nil
	}
}

// Set returns the live discovered-set.
func (s *Session) Set() *scanner.Set {
	return s.scanner.Set()
}

// Registered returns the number of accepted registrations.
func (s *Session) Registered() int64 {
	return s.registered.Load()
}

// Late returns the number of registrations dropped after completion.
func (s *Session) Late() int64 {
	return s.late.Load()
}
