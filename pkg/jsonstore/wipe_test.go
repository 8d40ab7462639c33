package jsonstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestPendingTable(t *testing.T) {
	p := newPendingTable()
	if settled, failed := p.poll(); !settled || failed != nil {
		t.Fatalf("empty table poll = %v, %v; want settled", settled, failed)
	}

	p.start("b")
	p.start("a")
	p.start("c")
	if settled, _ := p.poll(); settled {
		t.Fatal("table with pending deletes reported settled")
	}
	p.settle("c", false)
	p.settle("b", true)
	if settled, _ := p.poll(); settled {
		t.Fatal("table with one pending delete reported settled")
	}
	p.settle("a", false)
	settled, failed := p.poll()
	if !settled {
		t.Fatal("table should be settled")
	}
	if diff := cmp.Diff([]string{"a", "c"}, failed); diff != "" {
		t.Fatalf("failed mismatch (-want +got):\n%s", diff)
	}
}

func writeAll(t *testing.T, b *IndexedBackend, paths ...string) {
	t.Helper()
	for _, p := range paths {
		mustOK(t)(b.WriteFile(context.Background(), p, map[string]any{"path": p}))
	}
}

func TestWipeRemovesEverything(t *testing.T) {
	ctx := context.Background()
	b, kc := newTestIndexed(t)
	writeAll(t, b, "a", "b/c", "b/d/e")

	mustOK(t)(b.WipeData(ctx))

	for _, p := range []string{"a", "b/c", "b/d/e"} {
		res, err := b.ReadFile(ctx, p)
		mustFail(t, res, err, ErrNotFound)
	}
	if _, err := kc.base.Get(ctx, IndexKey, DefaultService); !isNotFound(err) {
		t.Fatalf("index still present after wipe: %v", err)
	}
	if got := listed(t, mustOK(t)(b.ListFiles(ctx, ""))); len(got) != 0 {
		t.Fatalf("list after wipe = %v; want empty", got)
	}
	// One remove for the index plus one per entry.
	if n := kc.removeCount(); n != 4 {
		t.Fatalf("removes = %d; want 4", n)
	}
}

func TestWipeIdempotent(t *testing.T) {
	ctx := context.Background()
	b, _ := newTestIndexed(t)
	writeAll(t, b, "x", "y/z")

	mustOK(t)(b.WipeData(ctx))
	mustOK(t)(b.WipeData(ctx))
	if got := listed(t, mustOK(t)(b.ListFiles(ctx, ""))); len(got) != 0 {
		t.Fatalf("list after double wipe = %v; want empty", got)
	}
}

func TestWipeEmptyBackend(t *testing.T) {
	b, _ := newTestIndexed(t)
	mustOK(t)(b.WipeData(context.Background()))
}

func TestWipeReportsFailedPaths(t *testing.T) {
	ctx := context.Background()
	b, kc := newTestIndexed(t)
	writeAll(t, b, "ok", "bad/one", "bad/two")
	kc.failRemove(key("bad/two"), errInjected)
	kc.failRemove(key("bad/one"), errInjected)

	res, err := b.WipeData(ctx)
	mustFail(t, res, err, ErrWipeFailed)

	var e *Error
	if !errors.As(err, &e) {
		t.Fatalf("error %T is not *Error", err)
	}
	if diff := cmp.Diff([]string{"bad/one", "bad/two"}, e.Paths); diff != "" {
		t.Fatalf("failed paths mismatch (-want +got):\n%s", diff)
	}
	if res.Reason == "" {
		t.Fatal("failure result should carry a reason")
	}

	// Successful deletes are not rolled back, and the index is gone.
	res, err = b.ReadFile(ctx, "ok")
	mustFail(t, res, err, ErrNotFound)
	if got := listed(t, mustOK(t)(b.ListFiles(ctx, ""))); len(got) != 0 {
		t.Fatalf("list after partial wipe = %v; want empty", got)
	}
}

func TestWipeIndexClearFailureAborts(t *testing.T) {
	ctx := context.Background()
	b, kc := newTestIndexed(t)
	writeAll(t, b, "a", "b")
	kc.failRemove(IndexKey, errInjected)

	res, err := b.WipeData(ctx)
	mustFail(t, res, err, ErrWipeFailed)
	if !errors.Is(err, errInjected) {
		t.Fatalf("error = %v; want the clear failure as cause", err)
	}
	// Only the index removal was attempted.
	if n := kc.removeCount(); n != 1 {
		t.Fatalf("removes = %d; want 1", n)
	}
	kc.reset()
	mustOK(t)(b.ReadFile(ctx, "a"))
	if diff := cmp.Diff([]string{"a", "b"}, listed(t, mustOK(t)(b.ListFiles(ctx, "")))); diff != "" {
		t.Fatalf("list mismatch (-want +got):\n%s", diff)
	}
}

func TestWipeUnreadableIndexWipesNothing(t *testing.T) {
	ctx := context.Background()
	b, kc := newTestIndexed(t)
	writeAll(t, b, "a")
	kc.failGet(IndexKey, errInjected)

	mustOK(t)(b.WipeData(ctx))
	kc.reset()

	// The entry survives but is no longer indexed.
	mustOK(t)(b.ReadFile(ctx, "a"))
	if got := listed(t, mustOK(t)(b.ListFiles(ctx, ""))); len(got) != 0 {
		t.Fatalf("list = %v; want empty", got)
	}
}

func TestWipeNotFoundEntriesSucceed(t *testing.T) {
	ctx := context.Background()
	b, kc := newTestIndexed(t)
	writeAll(t, b, "a", "b")
	// Remove the raw entry behind the backend's back.
	if err := kc.base.Remove(ctx, key("a"), DefaultService); err != nil {
		t.Fatal(err)
	}
	mustOK(t)(b.WipeData(ctx))
}

func TestWipeContextCanceled(t *testing.T) {
	b, kc := newTestIndexed(t)
	writeAll(t, b, "slow")
	kc.removeDelay = time.Second

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	res, err := b.WipeData(ctx)
	mustFail(t, res, err, ErrWipeFailed)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("error = %v; want deadline exceeded", err)
	}
	if time.Since(start) > 500*time.Millisecond {
		t.Fatal("wipe did not stop on context cancellation")
	}
}
