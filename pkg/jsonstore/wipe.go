package jsonstore

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"
)

// DefaultPollInterval is how often a wipe checks for outstanding deletes.
const DefaultPollInterval = 100 * time.Millisecond

// txState is the outcome of one delete issued by a wipe.
type txState int

const (
	txPending txState = iota
	txSucceeded
	txFailed
)

// pendingTable records the outcome of every delete of one wipe.
type pendingTable struct {
	mu    sync.Mutex
	state map[string]txState
}

func newPendingTable() *pendingTable {
	return &pendingTable{state: make(map[string]txState)}
}

func (p *pendingTable) start(path string) {
	p.mu.Lock()
	p.state[path] = txPending
	p.mu.Unlock()
}

func (p *pendingTable) settle(path string, ok bool) {
	s := txFailed
	if ok {
		s = txSucceeded
	}
	p.mu.Lock()
	p.state[path] = s
	p.mu.Unlock()
}

// poll reports whether every delete has settled and, if so, which failed.
func (p *pendingTable) poll() (settled bool, failed []string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for path, s := range p.state {
		switch s {
		case txPending:
			return false, nil
		case txFailed:
			failed = append(failed, path)
		}
	}
	slices.Sort(failed)
	return true, failed
}

// wipeCoordinator removes every entry of an indexed backend.
type wipeCoordinator struct {
	index    *indexManager
	remove   func(ctx context.Context, path string) error
	interval time.Duration
	log      *slog.Logger
}

// run snapshots the index, clears it, fans out one delete per snapshot path
// and polls until all of them have settled. It returns the failed paths.
//
// An unreadable index is treated as empty. A failure to clear the index
// aborts before any entry is deleted. There is no bound on concurrent
// deletes.
func (w *wipeCoordinator) run(ctx context.Context) ([]string, error) {
	snapshot, err := w.index.get(ctx)
	if err != nil {
		w.log.Warn("wipe: index unreadable, nothing to wipe", "error", err)
		snapshot = nil
	}

	if err := w.index.clear(ctx); err != nil {
		return nil, err
	}

	table := newPendingTable()
	for _, path := range snapshot {
		table.start(path)
	}
	for _, path := range snapshot {
		go func() {
			err := w.remove(ctx, path)
			if err != nil && !isNotFound(err) {
				w.log.Warn("wipe: unable to remove entry", "path", path, "error", err)
				table.settle(path, false)
				return
			}
			table.settle(path, true)
		}()
	}

	timer := time.NewTimer(w.interval)
	defer timer.Stop()
	for {
		if settled, failed := table.poll(); settled {
			return failed, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
			timer.Reset(w.interval)
		}
	}
}
