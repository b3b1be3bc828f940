package crawlscope

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kailas-cloud/crawlscope/internal/db"
	dbRedis "github.com/kailas-cloud/crawlscope/internal/db/redis"
	domds "github.com/kailas-cloud/crawlscope/internal/domain/dataset"
	"github.com/kailas-cloud/crawlscope/internal/domain/page"
	"github.com/kailas-cloud/crawlscope/internal/domain/record"
	domsession "github.com/kailas-cloud/crawlscope/internal/domain/session"
	domsummary "github.com/kailas-cloud/crawlscope/internal/domain/summary"
	"github.com/kailas-cloud/crawlscope/internal/domain/term"
	datasetrepo "github.com/kailas-cloud/crawlscope/internal/repository/dataset"
	documentrepo "github.com/kailas-cloud/crawlscope/internal/repository/document"
	sessionrepo "github.com/kailas-cloud/crawlscope/internal/repository/session"
	"github.com/kailas-cloud/crawlscope/internal/repository/termstats"
	healthuc "github.com/kailas-cloud/crawlscope/internal/usecase/health"
	projectionuc "github.com/kailas-cloud/crawlscope/internal/usecase/projection"
	sessionuc "github.com/kailas-cloud/crawlscope/internal/usecase/session"
	summaryuc "github.com/kailas-cloud/crawlscope/internal/usecase/summary"
	"github.com/kailas-cloud/crawlscope/internal/usecase/tagging"
)

const defaultReadinessTimeout = 10 * time.Second

// Internal interfaces, replaced by mocks in tests.
type sessionUseCase interface {
	Open(ctx context.Context) (domsession.State, error)
	Get(ctx context.Context, id string) (domsession.State, error)
	SwitchActiveDataset(ctx context.Context, id, dataset string) (domsession.State, error)
	ApplyFilter(ctx context.Context, id, text string) (domsession.State, error)
	ClearFilter(ctx context.Context, id string) (domsession.State, error)
	SetPageCountCap(ctx context.Context, id string, n int) (domsession.State, error)
	ListPages(ctx context.Context, id string) (page.Listing, error)
	ListTopTerms(ctx context.Context, id string, maxTerms int) ([]term.Summary, error)
	TagPages(ctx context.Context, id string, urls []string, tag string, add bool) (tagging.Plan, error)
	TagTerms(ctx context.Context, id string, terms []string, tag string, add bool) (tagging.Plan, error)
	GetTermContext(ctx context.Context, id, word string) (term.Context, error)
	PageSummary(ctx context.Context, id string, w domsummary.Window, applyFilter bool) (domsummary.CountsByLabel, error)
	CrawlSummary(ctx context.Context, id string, w domsummary.Window, applyFilter bool) (domsummary.CrawlCounts, error)
	BoostPages(ctx context.Context, id string, urls []string) (int, error)
}

type datasetRegistry interface {
	Register(ctx context.Context, ds domds.Dataset) (bool, error)
	Get(ctx context.Context, id string) (domds.Dataset, error)
	List(ctx context.Context) ([]domds.Dataset, error)
	Delete(ctx context.Context, id string) error
}

type pageWriter interface {
	Create(ctx context.Context, recs []record.Record, dataset string, docType record.DocType) error
}

// Client is the crawlscope SDK entry point.
type Client struct {
	store     db.Store
	sessions  sessionUseCase
	registry  datasetRegistry
	pages     pageWriter
	healthSvc healthUseCase
	obs       *observer
}

// New creates a Client and connects to the database.
// The provided context is used for the initial readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{readinessTimeout: defaultReadinessTimeout}
	for _, o := range opts {
		o.apply(cfg)
	}

	if len(cfg.addrs) == 0 {
		return nil, errors.New("crawlscope: database address required (use WithRedis or WithAddrs)")
	}
	if cfg.keyPrefix != "" && !db.IsValidIdentifier(cfg.keyPrefix) {
		return nil, fmt.Errorf("crawlscope: invalid key prefix %q", cfg.keyPrefix)
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.addrs,
		Username: cfg.username,
		Password: cfg.password,
		DB:       cfg.db,
	})
	if err != nil {
		return nil, fmt.Errorf("crawlscope: create redis store: %w", err)
	}

	if err := store.WaitForReady(ctx, cfg.readinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("crawlscope: database not ready: %w", err)
	}

	return wireClient(store, cfg, obs), nil
}

func wireClient(store db.Store, cfg *clientConfig, obs *observer) *Client {
	ks := db.NewKeyspace(cfg.keyPrefix)

	docRepo := documentrepo.New(store, ks)
	registry := datasetrepo.New(store, ks)
	stats := termstats.New(docRepo).WithMaxFeatures(cfg.maxFeatures)

	sessions := sessionuc.New(
		sessionrepo.New(store, ks, cfg.sessionTTL),
		registry,
		docRepo,
		stats,
		projectionuc.New(stats),
		tagging.New(docRepo),
		summaryuc.New(docRepo),
	).WithLimits(sessionuc.Limits{
		DefaultPageCap: cfg.defaultPageCap,
		MaxPageCap:     cfg.maxPageCap,
	})

	return &Client{
		store:     store,
		sessions:  sessions,
		registry:  registry,
		pages:     docRepo,
		healthSvc: healthuc.New(store, store),
		obs:       obs,
	}
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks database connectivity.
func (c *Client) Ping(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("ping", start, err) }()

	if err = c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Sessions returns the exploration session service.
func (c *Client) Sessions() *SessionService {
	return &SessionService{svc: c.sessions, obs: c.obs}
}

// Datasets returns the dataset registry and ingestion service.
func (c *Client) Datasets() *DatasetService {
	return &DatasetService{registry: c.registry, pages: c.pages, obs: c.obs, now: time.Now}
}
