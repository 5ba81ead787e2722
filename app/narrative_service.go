package app

import (
	"context"
	"sort"
	"sync"

	"go.uber.org/zap"

	"gonarrative/domain/core"
	"gonarrative/domain/narrative"
	"gonarrative/internal/engine"
	"gonarrative/internal/errors"
)

// NarrativeService serves narratives for the configured sections of one
// dataset. It owns filtering and memoisation; the engine itself stays
// stateless and is handed the unfiltered dataset as reference.
type NarrativeService struct {
	engine      *engine.Engine
	dataset     narrative.Dataset
	datasetHash core.DatasetHash
	sections    map[string]narrative.MetricConfig
	order       []string
	cache       *narrativeCache
	logger      *zap.Logger
}

// ServiceOption configures a NarrativeService
type ServiceOption func(*NarrativeService)

// WithCache bounds the memo; zero or negative disables it
func WithCache(maxEntries int) ServiceOption {
	return func(s *NarrativeService) {
		if maxEntries > 0 {
			s.cache = newNarrativeCache(maxEntries)
		} else {
			s.cache = nil
		}
	}
}

// WithServiceLogger sets the service logger
func WithServiceLogger(l *zap.Logger) ServiceOption {
	return func(s *NarrativeService) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewNarrativeService validates the sections and fingerprints the dataset
func NewNarrativeService(eng *engine.Engine, ds narrative.Dataset, sections []narrative.MetricConfig, opts ...ServiceOption) (*NarrativeService, error) {
	if eng == nil {
		return nil, errors.InvalidInput("engine is required")
	}
	s := &NarrativeService{
		engine:      eng,
		dataset:     ds,
		datasetHash: fingerprint(ds),
		sections:    make(map[string]narrative.MetricConfig, len(sections)),
		cache:       newNarrativeCache(256),
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	for _, sec := range sections {
		if err := sec.Validate(); err != nil {
			return nil, errors.WithCode(errors.CodeConfigInvalid, err)
		}
		if _, dup := s.sections[sec.ID]; dup {
			return nil, errors.ConfigInvalid("duplicate section id " + sec.ID)
		}
		if !ds.HasField(sec.ValueField) {
			s.logger.Warn("section value field absent from dataset",
				zap.String("section", sec.ID),
				zap.String("field", sec.ValueField),
			)
		}
		s.sections[sec.ID] = sec
		s.order = append(s.order, sec.ID)
	}
	return s, nil
}

// Sections returns the configured sections in declaration order
func (s *NarrativeService) Sections() []narrative.MetricConfig {
	out := make([]narrative.MetricConfig, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.sections[id])
	}
	return out
}

// Section looks up one section
func (s *NarrativeService) Section(id string) (narrative.MetricConfig, error) {
	parsed, err := core.ParseSectionID(id)
	if err != nil {
		return narrative.MetricConfig{}, errors.WithCode(errors.CodeInvalidInput, err)
	}
	sec, ok := s.sections[parsed.String()]
	if !ok {
		return narrative.MetricConfig{}, errors.NotFound("section " + parsed.String())
	}
	return sec, nil
}

// Dataset returns the unfiltered dataset
func (s *NarrativeService) Dataset() narrative.Dataset {
	return s.dataset
}

// FilterValues lists the distinct values of a field, for building selectors
func (s *NarrativeService) FilterValues(field string) []string {
	seen := make(map[string]struct{})
	for _, r := range s.dataset {
		if v, ok := r.Text(field); ok {
			seen[v] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// Narrate applies the filters and runs the engine for one section. Filters
// naming a field the dataset lacks are rejected; "all" and empty selectors
// are no-ops.
func (s *NarrativeService) Narrate(ctx context.Context, sectionID string, filters narrative.FilterState) (engine.Result, error) {
	if err := ctx.Err(); err != nil {
		return engine.Result{}, errors.Wrap(err, "narrate cancelled")
	}
	sec, err := s.Section(sectionID)
	if err != nil {
		return engine.Result{}, err
	}

	active := filters.Active()
	for _, field := range active.Keys() {
		if !s.dataset.HasField(field) {
			return engine.Result{}, errors.InvalidInput("unknown filter field " + field)
		}
	}

	key := core.ComputeNarrativeKey(sec.ID, active, s.datasetHash, s.engine.Policy().Version)
	if s.cache != nil {
		if res, ok := s.cache.get(key); ok {
			s.logger.Debug("narrative cache hit", zap.String("section", sec.ID), zap.String("key", core.Hash(key).Short()))
			return res, nil
		}
	}

	view := s.dataset
	if len(active) > 0 {
		view = s.dataset.Filter(active.Matches)
	}
	res := s.engine.Run(view, sec, active, engine.WithReference(s.dataset))

	if s.cache != nil {
		s.cache.put(key, res)
	}
	s.logger.Debug("narrative generated",
		zap.String("section", sec.ID),
		zap.Int("rows", view.Len()),
		zap.Strings("fired", res.FiredRules()),
	)
	return res, nil
}

func fingerprint(ds narrative.Dataset) core.DatasetHash {
	rows := make([]map[string]string, len(ds))
	for i, r := range ds {
		row := make(map[string]string, len(r))
		for k, v := range r {
			row[k] = v.String()
		}
		rows[i] = row
	}
	return core.ComputeDatasetHash(rows)
}

// narrativeCache is a bounded FIFO memo keyed by narrative key
type narrativeCache struct {
	mu      sync.Mutex
	max     int
	entries map[core.NarrativeKey]engine.Result
	order   []core.NarrativeKey
}

func newNarrativeCache(max int) *narrativeCache {
	return &narrativeCache{max: max, entries: make(map[core.NarrativeKey]engine.Result, max)}
}

func (c *narrativeCache) get(key core.NarrativeKey) (engine.Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	res, ok := c.entries[key]
	return res, ok
}

func (c *narrativeCache) put(key core.NarrativeKey, res engine.Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[key]; ok {
		return
	}
	if len(c.order) >= c.max {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}
	c.entries[key] = res
	c.order = append(c.order, key)
}

func (c *narrativeCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
