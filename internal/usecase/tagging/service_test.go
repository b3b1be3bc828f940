package tagging

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/kailas-cloud/crawlscope/internal/domain"
	"github.com/kailas-cloud/crawlscope/internal/domain/record"
)

// fakeGateway keeps tag strings per id and records submitted batches.
type fakeGateway struct {
	tags    map[string]string
	findErr error
	calls   []string
	finds   int
}

func newFakeGateway(tags map[string]string) *fakeGateway {
	if tags == nil {
		tags = map[string]string{}
	}
	return &fakeGateway{tags: tags}
}

func (g *fakeGateway) FindByField(
	_ context.Context, _ string, docType record.DocType, field string, values, _ []string,
) (map[string]record.Record, error) {
	g.finds++
	if g.findErr != nil {
		return nil, g.findErr
	}
	out := make(map[string]record.Record)
	for _, v := range values {
		if raw, ok := g.tags[v]; ok {
			out[v] = record.New(v, map[string]string{field: v, record.FieldTag: raw})
		}
	}
	return out, nil
}

func (g *fakeGateway) Create(_ context.Context, recs []record.Record, _ string, _ record.DocType) error {
	g.calls = append(g.calls, "create")
	for _, r := range recs {
		raw, _ := r.String(record.FieldTag)
		g.tags[r.ID()] = raw
	}
	return nil
}

func (g *fakeGateway) Update(_ context.Context, recs []record.Record, _, _ string, _ record.DocType) error {
	g.calls = append(g.calls, "update")
	for _, r := range recs {
		raw, _ := r.String(record.FieldTag)
		g.tags[r.ID()] = raw
	}
	return nil
}

func TestPlan_CreateAndUpdateScenario(t *testing.T) {
	gw := newFakeGateway(map[string]string{"B": "Negative"})
	svc := New(gw)

	plan, err := svc.Plan(context.Background(), "ebola", record.DocTypePage, []string{"A", "B"}, "Positive", true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(plan.Creates) != 1 || plan.Creates[0].TargetID != "A" || plan.Creates[0].Tags.Encode() != "Positive" {
		t.Errorf("creates = %+v", plan.Creates)
	}
	if len(plan.Updates) != 1 || plan.Updates[0].TargetID != "B" || plan.Updates[0].Tags.Encode() != "Negative;Positive" {
		t.Errorf("updates = %+v", plan.Updates)
	}
	if gw.finds != 1 {
		t.Errorf("finds = %d, want one batched fetch", gw.finds)
	}
}

func TestApply_Idempotent(t *testing.T) {
	gw := newFakeGateway(map[string]string{"x": "Other"})
	svc := New(gw)
	ctx := context.Background()

	first, err := svc.Apply(ctx, "ebola", record.DocTypeTerm, []string{"x"}, "X", true)
	if err != nil {
		t.Fatalf("first apply: %v", err)
	}
	if len(first.Updates) != 1 || len(first.Creates) != 0 {
		t.Errorf("first plan = %+v", first)
	}

	second, err := svc.Apply(ctx, "ebola", record.DocTypeTerm, []string{"x"}, "X", true)
	if err != nil {
		t.Fatalf("second apply: %v", err)
	}
	if !second.IsEmpty() {
		t.Errorf("second plan = %+v, want no-op", second)
	}
	if !slices.Equal(gw.calls, []string{"update"}) {
		t.Errorf("calls = %v", gw.calls)
	}
}

func TestApply_TagUntagRestoresState(t *testing.T) {
	gw := newFakeGateway(map[string]string{"p": "Negative;Seen"})
	svc := New(gw)
	ctx := context.Background()

	if _, err := svc.Apply(ctx, "ebola", record.DocTypePage, []string{"p"}, "Positive", true); err != nil {
		t.Fatal(err)
	}
	if gw.tags["p"] != "Negative;Seen;Positive" {
		t.Errorf("after add = %q", gw.tags["p"])
	}
	if _, err := svc.Apply(ctx, "ebola", record.DocTypePage, []string{"p"}, "Positive", false); err != nil {
		t.Fatal(err)
	}
	if gw.tags["p"] != "Negative;Seen" {
		t.Errorf("after remove = %q", gw.tags["p"])
	}
}

func TestPlan_Remove(t *testing.T) {
	gw := newFakeGateway(map[string]string{"a": "Relevant", "b": "Other"})
	svc := New(gw)

	plan, err := svc.Plan(context.Background(), "ebola", record.DocTypePage, []string{"a", "b", "c"}, "Relevant", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(plan.Creates) != 0 {
		t.Errorf("remove must never create: %+v", plan.Creates)
	}
	if len(plan.Updates) != 1 || plan.Updates[0].TargetID != "a" || !plan.Updates[0].Tags.IsEmpty() {
		t.Errorf("updates = %+v", plan.Updates)
	}
}

func TestPlan_DuplicateIDsCollapsed(t *testing.T) {
	svc := New(newFakeGateway(nil))
	plan, err := svc.Plan(context.Background(), "ebola", record.DocTypePage, []string{"a", "a", ""}, "Relevant", true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(plan.Creates) != 1 {
		t.Errorf("creates = %+v", plan.Creates)
	}
}

func TestPlan_InvalidTag(t *testing.T) {
	gw := newFakeGateway(nil)
	svc := New(gw)
	for _, tag := range []string{"", "a;b"} {
		if _, err := svc.Plan(context.Background(), "ebola", record.DocTypePage, []string{"a"}, tag, true); !errors.Is(err, domain.ErrInvalidTag) {
			t.Errorf("tag %q: err = %v, want ErrInvalidTag", tag, err)
		}
	}
	if gw.finds != 0 {
		t.Error("invalid tags must be rejected before any fetch")
	}
}

func TestPlan_GatewayFailureSurfaced(t *testing.T) {
	gw := newFakeGateway(nil)
	gw.findErr = domain.ErrGatewayFailure
	svc := New(gw)
	if _, err := svc.Plan(context.Background(), "ebola", record.DocTypePage, []string{"a"}, "X", true); !errors.Is(err, domain.ErrGatewayFailure) {
		t.Fatalf("expected ErrGatewayFailure, got %v", err)
	}
}

func TestApply_CreatesBeforeUpdates(t *testing.T) {
	gw := newFakeGateway(map[string]string{"b": "Negative"})
	svc := New(gw)
	if _, err := svc.Apply(context.Background(), "ebola", record.DocTypePage, []string{"b", "a"}, "Positive", true); err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(gw.calls, []string{"create", "update"}) {
		t.Errorf("calls = %v", gw.calls)
	}
}

func TestApply_EmptyIDs(t *testing.T) {
	gw := newFakeGateway(nil)
	plan, err := New(gw).Apply(context.Background(), "ebola", record.DocTypePage, nil, "X", true)
	if err != nil || !plan.IsEmpty() {
		t.Fatalf("plan = %+v, err = %v", plan, err)
	}
	if gw.finds != 0 || len(gw.calls) != 0 {
		t.Error("empty request must not touch the gateway")
	}
}

// gatedGateway holds the first tag read until release is closed.
type gatedGateway struct {
	*fakeGateway
	mu        sync.Mutex
	reads     int
	firstRead chan struct{}
	release   chan struct{}
}

func newGatedGateway(tags map[string]string) *gatedGateway {
	return &gatedGateway{
		fakeGateway: newFakeGateway(tags),
		firstRead:   make(chan struct{}),
		release:     make(chan struct{}),
	}
}

func (g *gatedGateway) FindByField(
	ctx context.Context, dataset string, docType record.DocType, field string, values, returnFields []string,
) (map[string]record.Record, error) {
	g.mu.Lock()
	g.reads++
	n := g.reads
	out, err := g.fakeGateway.FindByField(ctx, dataset, docType, field, values, returnFields)
	g.mu.Unlock()
	if n == 1 {
		close(g.firstRead)
		<-g.release
	}
	return out, err
}

func (g *gatedGateway) Create(ctx context.Context, recs []record.Record, dataset string, docType record.DocType) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.fakeGateway.Create(ctx, recs, dataset, docType)
}

func (g *gatedGateway) Update(
	ctx context.Context, recs []record.Record, keyField, dataset string, docType record.DocType,
) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.fakeGateway.Update(ctx, recs, keyField, dataset, docType)
}

func TestApply_ConcurrentTagsOnSameRecordKeepBoth(t *testing.T) {
	gw := newGatedGateway(map[string]string{"http://a": "Seen"})
	svc := New(gw)
	ctx := context.Background()

	errs := make(chan error, 2)
	go func() {
		_, err := svc.Apply(ctx, "ebola", record.DocTypePage, []string{"http://a"}, "Relevant", true)
		errs <- err
	}()
	<-gw.firstRead
	go func() {
		_, err := svc.Apply(ctx, "ebola", record.DocTypePage, []string{"http://a"}, "Keep", true)
		errs <- err
	}()
	time.Sleep(20 * time.Millisecond)
	close(gw.release)

	for range 2 {
		if err := <-errs; err != nil {
			t.Fatalf("apply: %v", err)
		}
	}
	if got := gw.tags["http://a"]; got != "Seen;Relevant;Keep" {
		t.Errorf("tags = %q, want Seen;Relevant;Keep", got)
	}
	if gw.reads != 2 {
		t.Errorf("reads = %d, want 2", gw.reads)
	}
	if svc.locks.Len() != 0 {
		t.Errorf("%d record locks left behind", svc.locks.Len())
	}
}

func TestApply_OtherDatasetNotBlocked(t *testing.T) {
	gw := newGatedGateway(map[string]string{"http://a": "Seen"})
	svc := New(gw)
	ctx := context.Background()

	first := make(chan error, 1)
	go func() {
		_, err := svc.Apply(ctx, "ebola", record.DocTypePage, []string{"http://a"}, "Relevant", true)
		first <- err
	}()
	<-gw.firstRead

	done := make(chan error, 1)
	go func() {
		_, err := svc.Apply(ctx, "zika", record.DocTypeTerm, []string{"http://a"}, "Keep", true)
		done <- err
	}()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("apply: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("tagging another dataset waited on an unrelated lock")
	}
	close(gw.release)
	if err := <-first; err != nil {
		t.Fatalf("apply: %v", err)
	}
}
