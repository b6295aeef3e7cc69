package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/rttidump/internal/config"
	"github.com/dbsmedya/rttidump/internal/hook"
	"github.com/dbsmedya/rttidump/internal/logger"
	"github.com/dbsmedya/rttidump/internal/memory"
	"github.com/dbsmedya/rttidump/internal/rtti"
)

// target is an opened address space together with its record layout.
type target struct {
	space  memory.Space
	layout *rtti.Layout
	// image is set for PE targets; only images have a section table.
	image *memory.Image
	desc  string
}

// openTarget opens the configured source.
func openTarget(cfg *config.Config) (*target, error) {
	layout, err := rtti.LayoutByName(cfg.Target.Layout)
	if err != nil {
		return nil, err
	}

	switch cfg.Target.Source {
	case config.SourceProcess:
		p, err := memory.OpenProcess(cfg.Target.PID)
		if err != nil {
			return nil, err
		}
		return &target{space: p, layout: layout, desc: fmt.Sprintf("pid %d", p.PID())}, nil
	default:
		img, err := memory.OpenPE(cfg.Target.Path)
		if err != nil {
			return nil, err
		}
		return &target{space: img, layout: layout, image: img, desc: cfg.Target.Path}, nil
	}
}

// locate resolves the configured signatures in the target's code. Only PE
// targets carry a section table.
func (t *target) locate(sigs []config.Signature) ([]hook.Match, error) {
	if t.image == nil {
		return nil, fmt.Errorf("signature lookup needs a PE image, target is %s", t.desc)
	}
	hs := make([]hook.Signature, 0, len(sigs))
	for _, s := range sigs {
		hs = append(hs, hook.Signature{Name: s.Name, Pattern: s.Pattern})
	}
	return hook.NewLocator(t.image).LocateAll(hs)
}

// scanResult is a completed scan.
type scanResult struct {
	session  *hook.Session
	snapshot []*rtti.Type
	decoded  int
}

// scan replays the registrations found in the target and waits for the
// discovered-set to freeze. A contract violation in the type graph is
// logged and returned as an error.
func (t *target) scan(ctx context.Context, cfg *config.Config, log *logger.Logger) (res *scanResult, err error) {
	dec := rtti.NewDecoder(memory.NewReader(t.space), t.layout)

	var feeds []hook.Feed
	head, err := cfg.Scan.ChainHeadAddr()
	if err != nil {
		return nil, err
	}
	if head != 0 {
		feeds = append(feeds, &hook.ChainFeed{Decoder: dec, Head: head})
	}
	roots, err := cfg.Scan.RootAddrs()
	if err != nil {
		return nil, err
	}
	if len(roots) > 0 {
		feeds = append(feeds, &hook.RootFeed{Decoder: dec, Addrs: roots})
	}
	if len(feeds) == 0 {
		return nil, errors.New("nothing to scan: set scan.roots or scan.chain_head")
	}

	session := hook.NewSession(log.WithSession(cfg.Target.Source, t.layout.Name))

	defer func() {
		r := recover()
		if r == nil {
			return
		}
		rerr, ok := r.(error)
		var ce *rtti.ContractError
		if !ok || !errors.As(rerr, &ce) {
			panic(r)
		}
		log.Errorw("type graph contract violation",
			"op", ce.Op,
			"addr", fmt.Sprintf("0x%x", ce.Addr),
			"raw_kind", ce.RawKind,
		)
		res, err = nil, fmt.Errorf("aborting scan: %w", ce)
	}()

	if err := hook.Drive(ctx, session, feeds...); err != nil {
		return nil, fmt.Errorf("scan failed: %w", err)
	}
	snapshot, err := session.Wait(ctx)
	if err != nil {
		return nil, err
	}
	return &scanResult{session: session, snapshot: snapshot, decoded: dec.Len()}, nil
}

// commandContext returns the command's context, or Background when the
// command runs outside Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
