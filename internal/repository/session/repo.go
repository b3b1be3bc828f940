package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/kailas-cloud/crawlscope/internal/db"
	"github.com/kailas-cloud/crawlscope/internal/domain"
	domsession "github.com/kailas-cloud/crawlscope/internal/domain/session"
)

// DefaultTTL evicts sessions idle for a day.
const DefaultTTL = 24 * time.Hour

// store is the consumer interface for session state (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Expire(ctx context.Context, key string, ttl time.Duration, nx bool) error
}

// Repo persists session state as JSON with an idle TTL.
type Repo struct {
	store store
	ks    db.Keyspace
	ttl   time.Duration
}

// New creates a session store.
func New(s store, ks db.Keyspace, ttl time.Duration) *Repo {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Repo{store: s, ks: ks, ttl: ttl}
}

// Get loads a session and extends its lifetime.
func (r *Repo) Get(ctx context.Context, id string) (domsession.State, error) {
	key := r.ks.Session(id)
	raw, err := r.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domsession.State{}, fmt.Errorf("session %q: %w", id, domain.ErrSessionNotFound)
		}
		return domsession.State{}, fmt.Errorf("%w: get session %s: %w", domain.ErrGatewayFailure, id, err)
	}

	var st domsession.State
	if err := json.Unmarshal(raw, &st); err != nil {
		return domsession.State{}, fmt.Errorf("%w: decode session %s: %w", domain.ErrGatewayFailure, id, err)
	}

	if err := r.store.Expire(ctx, key, r.ttl, false); err != nil {
		return domsession.State{}, fmt.Errorf("%w: touch session %s: %w", domain.ErrGatewayFailure, id, err)
	}
	return st, nil
}

// Save writes the session and resets its lifetime.
func (r *Repo) Save(ctx context.Context, st domsession.State) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", st.ID(), err)
	}
	if err := r.store.SetWithTTL(ctx, r.ks.Session(st.ID()), data, r.ttl); err != nil {
		return fmt.Errorf("%w: save session %s: %w", domain.ErrGatewayFailure, st.ID(), err)
	}
	return nil
}
