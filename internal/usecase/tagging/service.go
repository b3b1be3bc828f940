package tagging

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/crawlscope/internal/domain/record"
	"github.com/kailas-cloud/crawlscope/internal/domain/tagset"
	"github.com/kailas-cloud/crawlscope/internal/keylock"
	"github.com/kailas-cloud/crawlscope/internal/logger"
	"github.com/kailas-cloud/crawlscope/internal/metrics"
)

// Op is the kind of write an edit turns into.
type Op string

const (
	// OpCreate writes a new record.
	OpCreate Op = "create"
	// OpUpdate rewrites the tag field of an existing record.
	OpUpdate Op = "update"
)

// Edit is one pending tag mutation.
type Edit struct {
	TargetID string
	Tags     tagset.Set
	Op       Op
}

// Plan is the minimal set of writes for a tag request. No id appears twice
// and no edit leaves a tag set unchanged.
type Plan struct {
	Creates []Edit
	Updates []Edit
}

// IsEmpty reports whether the plan has nothing to write.
func (p Plan) IsEmpty() bool {
	return len(p.Creates) == 0 && len(p.Updates) == 0
}

// Service reconciles tag requests against stored tag state. Apply holds a
// per-record lock across read and write, shared by every session using the
// same Service. Locks are process-local.
type Service struct {
	gw    Gateway
	locks *keylock.Mutex
}

// New creates a tag reconciler.
func New(gw Gateway) *Service {
	return &Service{gw: gw, locks: keylock.New()}
}

// Plan computes the edits that add tag to (or remove it from) every id.
// Ids with no stored record have no prior tags. Duplicate ids are collapsed.
func (s *Service) Plan(
	ctx context.Context, dataset string, kind record.DocType, ids []string, tag string, add bool,
) (Plan, error) {
	if err := tagset.ValidateLabel(tag); err != nil {
		return Plan{}, err
	}
	if !kind.Valid() {
		return Plan{}, fmt.Errorf("unknown record kind %q", kind)
	}
	ids = dedupe(ids)
	if len(ids) == 0 {
		return Plan{}, nil
	}

	keyField := kind.KeyField()
	existing, err := s.gw.FindByField(ctx, dataset, kind, keyField, ids, []string{keyField, record.FieldTag})
	if err != nil {
		return Plan{}, fmt.Errorf("fetch tags: %w", err)
	}

	var plan Plan
	for _, id := range ids {
		rec, found := existing[id]
		switch {
		case add && !found:
			plan.Creates = append(plan.Creates, Edit{TargetID: id, Tags: tagset.Set{}.Add(tag), Op: OpCreate})
		case add:
			prior := rec.Tags()
			if prior.Contains(tag) {
				continue
			}
			plan.Updates = append(plan.Updates, Edit{TargetID: id, Tags: prior.Add(tag), Op: OpUpdate})
		case found:
			prior := rec.Tags()
			if !prior.Contains(tag) {
				continue
			}
			plan.Updates = append(plan.Updates, Edit{TargetID: id, Tags: prior.Remove(tag), Op: OpUpdate})
		}
	}
	return plan, nil
}

// Apply plans the request and submits creates, then updates, as two batches.
func (s *Service) Apply(
	ctx context.Context, dataset string, kind record.DocType, ids []string, tag string, add bool,
) (Plan, error) {
	unlock := s.locks.LockAll(lockKeys(dataset, kind, ids)...)
	defer unlock()

	plan, err := s.Plan(ctx, dataset, kind, ids, tag, add)
	if err != nil {
		return Plan{}, err
	}

	keyField := kind.KeyField()
	if len(plan.Creates) > 0 {
		if err := s.gw.Create(ctx, toRecords(plan.Creates, keyField), dataset, kind); err != nil {
			return Plan{}, fmt.Errorf("create tagged %ss: %w", kind, err)
		}
		metrics.TagEditsTotal.WithLabelValues(string(kind), string(OpCreate)).Add(float64(len(plan.Creates)))
	}
	if len(plan.Updates) > 0 {
		if err := s.gw.Update(ctx, toRecords(plan.Updates, keyField), keyField, dataset, kind); err != nil {
			return Plan{}, fmt.Errorf("update tagged %ss: %w", kind, err)
		}
		metrics.TagEditsTotal.WithLabelValues(string(kind), string(OpUpdate)).Add(float64(len(plan.Updates)))
	}

	logger.FromContext(ctx).Info("Tags applied",
		zap.String("dataset", dataset),
		zap.String("kind", string(kind)),
		zap.String("tag", tag),
		zap.Bool("add", add),
		zap.Int("creates", len(plan.Creates)),
		zap.Int("updates", len(plan.Updates)),
	)
	return plan, nil
}

func lockKeys(dataset string, kind record.DocType, ids []string) []string {
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		keys = append(keys, dataset+"\x00"+string(kind)+"\x00"+id)
	}
	return keys
}

func toRecords(edits []Edit, keyField string) []record.Record {
	out := make([]record.Record, len(edits))
	for i, e := range edits {
		out[i] = record.New(e.TargetID, map[string]string{
			keyField:        e.TargetID,
			record.FieldTag: e.Tags.Encode(),
		})
	}
	return out
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup || id == "" {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
