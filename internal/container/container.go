package container

import (
	"gonarrative/adapters/excel"
	"gonarrative/app"
	"gonarrative/domain/narrative"
	"gonarrative/internal/config"
	"gonarrative/internal/engine"
	"gonarrative/internal/errors"
	"gonarrative/internal/policy"
	"gonarrative/internal/testkit"

	"go.uber.org/zap"
)

// Container holds all application dependencies
type Container struct {
	Config *config.Config
	Logger *zap.Logger

	Policy  policy.Policy
	Dataset narrative.Dataset
	Engine  *engine.Engine

	Narratives *app.NarrativeService
	Reports    *app.ReportService

	// Synthetic reports whether the dataset came from the test kit
	Synthetic bool
}

// New wires policy, dataset, engine and services from configuration.
// Without a data path the synthetic area kit is served, including its
// sections when none are configured.
func New(cfg *config.Config, logger *zap.Logger) (*Container, error) {
	if cfg == nil {
		return nil, errors.InvalidInput("config cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &Container{Config: cfg, Logger: logger}

	pol := policy.Default()
	if cfg.Policy.Path != "" {
		p, err := policy.Load(cfg.Policy.Path)
		if err != nil {
			return nil, errors.WithCode(errors.CodeConfigInvalid, err)
		}
		pol = p
	}
	c.Policy = pol
	logger.Info("policy loaded", zap.String("version", pol.Version))

	sections := cfg.Sections
	if cfg.Data.Path != "" {
		reader := excel.NewDataReader(cfg.Data.Path, excel.WithSheet(cfg.Data.Sheet), excel.WithLogger(logger))
		ds, err := reader.ReadDataset()
		if err != nil {
			return nil, err
		}
		c.Dataset = ds
	} else {
		logger.Warn("no data path configured, using synthetic area data")
		kit := testkit.NewKit()
		c.Dataset = kit.Dataset
		c.Synthetic = true
		if len(sections) == 0 {
			sections = kit.Sections
		}
	}

	c.Engine = engine.New(engine.WithPolicy(pol), engine.WithLogger(logger))

	cacheSize := 0
	if cfg.Cache.Enabled {
		cacheSize = cfg.Cache.MaxEntries
	}
	narratives, err := app.NewNarrativeService(c.Engine, c.Dataset, sections,
		app.WithCache(cacheSize),
		app.WithServiceLogger(logger),
	)
	if err != nil {
		return nil, err
	}
	c.Narratives = narratives
	c.Reports = app.NewReportService(narratives, cfg.Report.Concurrency, logger)

	logger.Info("container ready",
		zap.Int("rows", c.Dataset.Len()),
		zap.Int("sections", len(sections)),
		zap.Bool("synthetic", c.Synthetic),
	)
	return c, nil
}

// Shutdown flushes the logger
func (c *Container) Shutdown() {
	_ = c.Logger.Sync()
}
