package hook

import (
	"context"
	"errors"
	"fmt"

	"github.com/dbsmedya/rttidump/internal/rtti"
)

// ErrChainBroken is returned when the registration chain reaches a record
// that is not a class.
var ErrChainBroken = errors.New("hook: registration chain reached a non-class record")

// DefaultChainLimit bounds the number of records a ChainFeed follows.
const DefaultChainLimit = 1 << 20

// Feed delivers registrations to a listener. It stands in for the target's
// own factory: without a detour in the target process, registrations are
// replayed from records found in its memory.
type Feed interface {
	Run(ctx context.Context, l Listener) error
}

// Drive runs feeds in order and then signals completion. A failing feed
// stops the run and completion is not signalled.
func Drive(ctx context.Context, l Listener, feeds ...Feed) error {
	for _, f := range feeds {
		if err := f.Run(ctx, l); err != nil {
			return err
		}
	}
	l.OnRegistrationComplete()
	return nil
}

// RootFeed registers the records at a fixed list of addresses.
type RootFeed struct {
	Decoder *rtti.Decoder
	Addrs   []uint64
}

// Run implements Feed. Zero addresses are skipped.
func (f *RootFeed) Run(ctx context.Context, l Listener) error {
	for _, addr := range f.Addrs {
		if err := ctx.Err(); err != nil {
			return err
		}
		t, err := f.Decoder.Load(addr)
		if err != nil {
			return fmt.Errorf("root 0x%x: %w", addr, err)
		}
		if t == nil {
			continue
		}
		l.OnTypeRegistered(t)
	}
	return nil
}

// ChainFeed follows the factory's registration chain: every class links to
// the class registered after it. Registrations are delivered in chain order.
type ChainFeed struct {
	Decoder *rtti.Decoder
	Head    uint64
	// Limit caps the chain length; zero means DefaultChainLimit.
	Limit int
}

// Run implements Feed. The walk ends at a zero link or at a class already
// visited.
func (f *ChainFeed) Run(ctx context.Context, l Listener) error {
	limit := f.Limit
	if limit <= 0 {
		limit = DefaultChainLimit
	}

	seen := make(map[uint64]struct{})
	for addr := f.Head; addr != 0; {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, ok := seen[addr]; ok {
			return nil
		}
		if len(seen) >= limit {
			return fmt.Errorf("hook: registration chain longer than %d records", limit)
		}
		seen[addr] = struct{}{}

		t, err := f.Decoder.Load(addr)
		if err != nil {
			return fmt.Errorf("chain 0x%x: %w", addr, err)
		}
		c, ok := t.AsCompound()
		if !ok {
			return fmt.Errorf("%w: 0x%x is %s", ErrChainBroken, addr, t.Kind())
		}
		l.OnTypeRegistered(t)
		addr = c.NextType
	}
	return nil
}
