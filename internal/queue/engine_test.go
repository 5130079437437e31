package queue_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"llcqueue/internal/journal"
	"llcqueue/internal/lock"
	"llcqueue/internal/pipeline"
	"llcqueue/internal/queue"
	"llcqueue/internal/status"
	"llcqueue/internal/testsupport"
)

var (
	velocity  = status.NewKey(pipeline.ProcessDownloads, pipeline.VariableVelocity)
	density   = status.NewKey(pipeline.ProcessDownloads, pipeline.VariableDensity)
	vorticity = status.NewKey(pipeline.ProcessPostProcessing, pipeline.VariableVorticity)
	buoyancy  = status.NewKey(pipeline.ProcessPostProcessing, pipeline.VariableBuoyancy)
	pv        = status.NewKey(pipeline.ProcessPostProcessing, pipeline.VariablePotentialVorticity)
)

func newEngine(t *testing.T, opts ...queue.Option) (*queue.Engine, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "folder_status.yml")
	opts = append([]queue.Option{queue.WithLockTimeout(5 * time.Second), queue.WithRetryInterval(2 * time.Millisecond)}, opts...)
	engine, err := queue.New(path, opts...)
	if err != nil {
		t.Fatalf("queue.New: %v", err)
	}
	return engine, path
}

func lists(t *testing.T, path string, key status.Key) status.VariableStatus {
	t.Helper()
	doc := testsupport.ReadDocument(t, path)
	vs, ok := doc.Lookup(key)
	if !ok {
		t.Fatalf("pair %s missing from %s", key, path)
	}
	return *vs.Clone()
}

var emptyAsNil = cmpopts.EquateEmpty()

func requireLists(t *testing.T, path string, key status.Key, want status.VariableStatus) {
	t.Helper()
	if diff := cmp.Diff(want, lists(t, path, key), emptyAsNil); diff != "" {
		t.Fatalf("%s lists mismatch (-want +got):\n%s", key, diff)
	}
}

func requireKind(t *testing.T, err error, kind string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", kind)
	}
	if got := queue.Kind(err); got != kind {
		t.Fatalf("expected kind %s, got %s (%v)", kind, got, err)
	}
}

func TestAppendPendingFiltersKnownIDs(t *testing.T) {
	engine, path := newEngine(t)
	ctx := context.Background()

	testsupport.WriteDocument(t, path, testsupport.Document(t, map[string]status.VariableStatus{
		"downloads.velocity": {Pending: []int64{1}, InProgress: []int64{2}, Completed: []int64{3}},
	}))

	added, err := engine.AppendPending(ctx, velocity, 1, 2, 3, 4, 4, 5)
	if err != nil {
		t.Fatalf("AppendPending: %v", err)
	}
	if diff := cmp.Diff([]int64{4, 5}, added); diff != "" {
		t.Fatalf("added mismatch (-want +got):\n%s", diff)
	}
	requireLists(t, path, velocity, status.VariableStatus{Pending: []int64{1, 4, 5}, InProgress: []int64{2}, Completed: []int64{3}})
}

func TestAppendPendingIsIdempotent(t *testing.T) {
	engine, path := newEngine(t)
	ctx := context.Background()

	if _, err := engine.AppendPending(ctx, velocity, 7, 8, 9); err != nil {
		t.Fatalf("first append: %v", err)
	}
	first, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read status file: %v", err)
	}
	added, err := engine.AppendPending(ctx, velocity, 7, 8, 9)
	if err != nil {
		t.Fatalf("second append: %v", err)
	}
	if len(added) != 0 {
		t.Fatalf("expected nothing added on repeat, got %v", added)
	}
	second, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read status file: %v", err)
	}
	if string(first) != string(second) {
		t.Fatalf("repeat append changed the document:\n%s\n---\n%s", first, second)
	}
}

func TestAppendPendingWithoutIDsDoesNotTouchStore(t *testing.T) {
	engine, path := newEngine(t)

	added, err := engine.AppendPending(context.Background(), velocity)
	if err != nil {
		t.Fatalf("AppendPending: %v", err)
	}
	if added != nil {
		t.Fatalf("expected nil added, got %v", added)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected no status file, stat err=%v", err)
	}
}

func TestAppendPendingRejectsInvalidInput(t *testing.T) {
	engine, path := newEngine(t)
	ctx := context.Background()

	_, err := engine.AppendPending(ctx, velocity, 1, -2)
	requireKind(t, err, queue.KindInvalidInput)

	_, err = engine.AppendPending(ctx, status.NewKey("downloads", " "), 1)
	requireKind(t, err, queue.KindInvalidInput)

	if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
		t.Fatalf("expected no status file after rejected appends, stat err=%v", statErr)
	}
}

func TestClaimSucceedLifecycle(t *testing.T) {
	engine, path := newEngine(t)
	ctx := context.Background()

	if _, err := engine.AppendPending(ctx, vorticity, 1, 2, 3); err != nil {
		t.Fatalf("AppendPending: %v", err)
	}
	if err := engine.Claim(ctx, vorticity, 2); err != nil {
		t.Fatalf("Claim: %v", err)
	}
	requireLists(t, path, vorticity, status.VariableStatus{Pending: []int64{1, 3}, InProgress: []int64{2}})

	if err := engine.Succeed(ctx, vorticity, 2); err != nil {
		t.Fatalf("Succeed: %v", err)
	}
	requireLists(t, path, vorticity, status.VariableStatus{Pending: []int64{1, 3}, Completed: []int64{2}})

	err := engine.Succeed(ctx, vorticity, 2)
	requireKind(t, err, queue.KindNotInProgress)
	var transitionErr *queue.TransitionError
	if !errors.As(err, &transitionErr) {
		t.Fatalf("expected TransitionError, got %T", err)
	}
	if transitionErr.Op != queue.OpSucceed || transitionErr.Key != vorticity || transitionErr.Item != 2 {
		t.Fatalf("unexpected transition error fields: %+v", transitionErr)
	}
	if transitionErr.ErrorKind() != queue.KindNotInProgress {
		t.Fatalf("unexpected ErrorKind %s", transitionErr.ErrorKind())
	}
}

func TestClaimFailRoundTrip(t *testing.T) {
	engine, path := newEngine(t)
	ctx := context.Background()

	if _, err := engine.AppendPending(ctx, buoyancy, 4, 5, 6); err != nil {
		t.Fatalf("AppendPending: %v", err)
	}
	before := lists(t, path, buoyancy)

	if err := engine.Claim(ctx, buoyancy, 4); err != nil {
		t.Fatalf("Claim: %v", err)
	}
	if err := engine.Fail(ctx, buoyancy, 4); err != nil {
		t.Fatalf("Fail: %v", err)
	}
	requireLists(t, path, buoyancy, before)

	// A failed item that was not first goes to the front, so the lists keep
	// their membership but the item becomes next in line.
	if err := engine.Claim(ctx, buoyancy, 6); err != nil {
		t.Fatalf("Claim: %v", err)
	}
	if err := engine.Fail(ctx, buoyancy, 6); err != nil {
		t.Fatalf("Fail: %v", err)
	}
	requireLists(t, path, buoyancy, status.VariableStatus{Pending: []int64{6, 4, 5}})

	next, err := engine.ClaimNext(ctx, buoyancy)
	if err != nil {
		t.Fatalf("ClaimNext: %v", err)
	}
	if next != 6 {
		t.Fatalf("expected failed item 6 to be claimed next, got %d", next)
	}
}

func TestClaimNotPendingLeavesDocumentUnchanged(t *testing.T) {
	engine, path := newEngine(t)
	ctx := context.Background()

	testsupport.WriteDocument(t, path, testsupport.Document(t, map[string]status.VariableStatus{
		"post_processing.vorticity": {Pending: []int64{1, 3}, InProgress: []int64{2}, Completed: []int64{0}},
	}))
	before, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read status file: %v", err)
	}

	for _, id := range []int64{2, 0, 99} {
		requireKind(t, engine.Claim(ctx, vorticity, id), queue.KindNotPending)
	}
	requireKind(t, engine.Claim(ctx, pv, 1), queue.KindNotPending)
	requireKind(t, engine.Fail(ctx, vorticity, 1), queue.KindNotInProgress)

	after, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read status file: %v", err)
	}
	if string(before) != string(after) {
		t.Fatalf("rejected transitions changed the document:\n%s\n---\n%s", before, after)
	}
}

func TestClaimNextOnEmptyPending(t *testing.T) {
	engine, _ := newEngine(t)
	_, err := engine.ClaimNext(context.Background(), density)
	requireKind(t, err, queue.KindNothingPending)
}

func TestTransitionsRejectNegativeIDs(t *testing.T) {
	engine, path := newEngine(t)
	ctx := context.Background()

	requireKind(t, engine.Claim(ctx, velocity, -1), queue.KindInvalidInput)
	requireKind(t, engine.Succeed(ctx, velocity, -1), queue.KindInvalidInput)
	requireKind(t, engine.Fail(ctx, velocity, -1), queue.KindInvalidInput)
	_, err := engine.ResetInProgress(ctx, velocity, -1)
	requireKind(t, err, queue.KindInvalidInput)

	if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
		t.Fatalf("expected no status file after rejected transitions, stat err=%v", statErr)
	}
}

func TestDisjointnessAndConservation(t *testing.T) {
	engine, path := newEngine(t)
	ctx := context.Background()

	if _, err := engine.AppendPending(ctx, velocity, 1, 2, 3, 4, 5, 6); err != nil {
		t.Fatalf("AppendPending: %v", err)
	}
	steps := []func() error{
		func() error { return engine.Claim(ctx, velocity, 3) },
		func() error { return engine.Claim(ctx, velocity, 1) },
		func() error { return engine.Succeed(ctx, velocity, 3) },
		func() error { return engine.Fail(ctx, velocity, 1) },
		func() error { _, err := engine.ClaimNext(ctx, velocity); return err },
		func() error { return engine.Claim(ctx, velocity, 3) },
		func() error { _, err := engine.AppendPending(ctx, velocity, 2, 7); return err },
		func() error { _, err := engine.ResetInProgress(ctx, velocity); return err },
	}

	want := []int64{1, 2, 3, 4, 5, 6}
	for i, step := range steps {
		_ = step()
		vs := lists(t, path, velocity)
		if err := vs.Validate(); err != nil {
			t.Fatalf("step %d broke disjointness: %v", i, err)
		}
		if i == 6 {
			want = append(want, 7)
		}
		var got []int64
		got = append(got, vs.Pending...)
		got = append(got, vs.InProgress...)
		got = append(got, vs.Completed...)
		sort.Slice(got, func(a, b int) bool { return got[a] < got[b] })
		if !slices.Equal(want, got) {
			t.Fatalf("step %d lost or invented items: want %v, got %v", i, want, got)
		}
	}
}

func TestConcurrentClaimsHaveOneWinner(t *testing.T) {
	engine, path := newEngine(t)
	ctx := context.Background()

	if _, err := engine.AppendPending(ctx, vorticity, 42); err != nil {
		t.Fatalf("AppendPending: %v", err)
	}

	const workers = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		winners int
		losers  int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := engine.Claim(ctx, vorticity, 42)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				winners++
			case queue.Kind(err) == queue.KindNotPending:
				losers++
			default:
				t.Errorf("unexpected claim error: %v", err)
			}
		}()
	}
	wg.Wait()

	if winners != 1 || losers != workers-1 {
		t.Fatalf("expected 1 winner and %d losers, got %d and %d", workers-1, winners, losers)
	}
	requireLists(t, path, vorticity, status.VariableStatus{InProgress: []int64{42}})
}

func TestConcurrentClaimNextHandsOutDistinctItems(t *testing.T) {
	engine, path := newEngine(t)
	ctx := context.Background()

	if _, err := engine.AppendPending(ctx, density, 1, 2, 3, 4, 5, 6, 7, 8); err != nil {
		t.Fatalf("AppendPending: %v", err)
	}

	const workers = 12
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		claimed []int64
		empty   int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := engine.ClaimNext(ctx, density)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				claimed = append(claimed, id)
			case errors.Is(err, queue.ErrNothingPending):
				empty++
			default:
				t.Errorf("unexpected ClaimNext error: %v", err)
			}
		}()
	}
	wg.Wait()

	slices.Sort(claimed)
	if diff := cmp.Diff([]int64{1, 2, 3, 4, 5, 6, 7, 8}, claimed); diff != "" {
		t.Fatalf("claimed mismatch (-want +got):\n%s", diff)
	}
	if empty != workers-8 {
		t.Fatalf("expected %d empty results, got %d", workers-8, empty)
	}
	if vs := lists(t, path, density); len(vs.Pending) != 0 || len(vs.InProgress) != 8 {
		t.Fatalf("unexpected lists after claims: %+v", vs)
	}
}

func TestCorruptStoreIsReported(t *testing.T) {
	engine, path := newEngine(t)
	testsupport.WriteFile(t, path, "downloads:\n    velocity:\n        pending: [1]\n        completed: [1]\n")

	requireKind(t, engine.Claim(context.Background(), velocity, 1), queue.KindCorruptStore)
	_, err := engine.Snapshot(context.Background())
	requireKind(t, err, queue.KindCorruptStore)
}

func TestLockTimeout(t *testing.T) {
	engine, _ := newEngine(t, queue.WithLockTimeout(50*time.Millisecond))

	held, err := lock.New(engine.Location()).Acquire(context.Background())
	if err != nil {
		t.Fatalf("acquire lock: %v", err)
	}
	defer held.Release()

	_, err = engine.AppendPending(context.Background(), velocity, 1)
	requireKind(t, err, queue.KindLockTimeout)
	if !errors.Is(err, lock.ErrTimeout) {
		t.Fatalf("expected lock.ErrTimeout, got %v", err)
	}
}

func TestNewRequiresLocation(t *testing.T) {
	_, err := queue.New("   ")
	requireKind(t, err, queue.KindInvalidInput)
}

type recordingJournal struct {
	mu      sync.Mutex
	entries []journal.Entry
}

func (r *recordingJournal) Record(_ context.Context, entry journal.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
	return nil
}

func TestTransitionsAreRecorded(t *testing.T) {
	rec := &recordingJournal{}
	engine, _ := newEngine(t, queue.WithJournal(rec))
	ctx := context.Background()

	if _, err := engine.AppendPending(ctx, velocity, 1, 2); err != nil {
		t.Fatalf("AppendPending: %v", err)
	}
	if err := engine.Claim(ctx, velocity, 1); err != nil {
		t.Fatalf("Claim: %v", err)
	}
	_ = engine.Claim(ctx, velocity, 1)
	if _, err := engine.AppendPending(ctx, velocity, 2); err != nil {
		t.Fatalf("AppendPending: %v", err)
	}

	if len(rec.entries) != 2 {
		t.Fatalf("expected 2 entries for changing operations, got %+v", rec.entries)
	}
	if rec.entries[0].Operation != queue.OpAppend || rec.entries[0].Count != 2 || rec.entries[0].ItemID != nil {
		t.Fatalf("unexpected append entry: %+v", rec.entries[0])
	}
	if rec.entries[1].Operation != queue.OpClaim || rec.entries[1].ItemID == nil || *rec.entries[1].ItemID != 1 {
		t.Fatalf("unexpected claim entry: %+v", rec.entries[1])
	}
}

func TestOpenFromConfigWithJournal(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithJournal())
	engine := testsupport.MustOpenEngine(t, cfg)
	ctx := context.Background()

	if engine.Location() != cfg.Paths.StatusFile {
		t.Fatalf("expected location %s, got %s", cfg.Paths.StatusFile, engine.Location())
	}
	if engine.LockPath() != cfg.Paths.StatusFile+".lock" {
		t.Fatalf("unexpected lock path %s", engine.LockPath())
	}
	if _, err := engine.AppendPending(ctx, velocity, 1, 2, 3); err != nil {
		t.Fatalf("AppendPending: %v", err)
	}

	j, err := journal.Open(cfg.Paths.JournalPath)
	if err != nil {
		t.Fatalf("journal.Open: %v", err)
	}
	defer j.Close()
	entries, err := j.List(ctx, journal.ListOptions{Key: velocity})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 1 || entries[0].Count != 3 {
		t.Fatalf("unexpected journal entries: %+v", entries)
	}
}
