package analysis

import (
	"context"
	"time"

	"github.com/turtacn/molview/internal/infrastructure/cache"
	"github.com/turtacn/molview/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/molview/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/molview/pkg/client"
	"github.com/turtacn/molview/pkg/types/molecule"
)

// CachingRemote serves repeated lookups of the same molecule from a cache.
// Only successful responses are stored; identical concurrent lookups share
// one remote call.
type CachingRemote struct {
	next    Remote
	cache   cache.Cache
	ttl     time.Duration
	logger  logging.Logger
	metrics *prometheus.AppMetrics
}

var _ Remote = (*CachingRemote)(nil)

// NewCachingRemote wraps next.  A zero ttl uses the cache's default.
func NewCachingRemote(next Remote, c cache.Cache, ttl time.Duration, logger logging.Logger, metrics *prometheus.AppMetrics) *CachingRemote {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &CachingRemote{next: next, cache: c, ttl: ttl, logger: logger, metrics: metrics}
}

func (r *CachingRemote) Parse(ctx context.Context, smiles string) (*molecule.MoleculeRecord, error) {
	var out molecule.MoleculeRecord
	err := r.lookup(ctx, "parse:"+smiles, &out, func(ctx context.Context) (interface{}, error) {
		return r.next.Parse(ctx, smiles)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *CachingRemote) GenerateConformer(ctx context.Context, smiles string, ff molecule.Forcefield) (*molecule.ConformerRecord, error) {
	var out molecule.ConformerRecord
	err := r.lookup(ctx, "conformer:"+string(ff)+":"+smiles, &out, func(ctx context.Context) (interface{}, error) {
		return r.next.GenerateConformer(ctx, smiles, ff)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *CachingRemote) Analyze(ctx context.Context, smiles string) (*client.AnalyzeResponse, error) {
	var out client.AnalyzeResponse
	err := r.lookup(ctx, "analyze:"+smiles, &out, func(ctx context.Context) (interface{}, error) {
		return r.next.Analyze(ctx, smiles)
	})
	if err != nil {
		return nil, err
	}
	if out.Admet == nil {
		out.Admet = []molecule.AdmetPrediction{}
	}
	return &out, nil
}

// lookup counts only reads from the store as hits.  A lookup that joined a
// concurrent caller's remote call is a miss that cost no extra call.
func (r *CachingRemote) lookup(ctx context.Context, key string, dest interface{}, load cache.Loader) error {
	src, err := r.cache.GetOrSet(ctx, key, dest, r.ttl, load)
	if err != nil {
		return err
	}
	prometheus.RecordCacheAccess(r.metrics, r.cache.Name(), src == cache.SourceStore)
	switch src {
	case cache.SourceStore:
		r.logger.Debug("remote response served from cache", logging.String("key", key))
	case cache.SourceShared:
		r.logger.Debug("remote response shared with a concurrent lookup", logging.String("key", key))
	}
	return nil
}
