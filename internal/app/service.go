// Package service wires the dataset store, chart builder and renderer into
// the operations the HTTP API and CLI depend on.
package service

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/robfig/cron"

	"github.com/okian/campaignboard/internal/adapters/export"
	"github.com/okian/campaignboard/internal/adapters/mq/queue"
	"github.com/okian/campaignboard/internal/adapters/mq/worker"
	"github.com/okian/campaignboard/internal/adapters/render"
	"github.com/okian/campaignboard/internal/adapters/repository"
	"github.com/okian/campaignboard/internal/config"
	"github.com/okian/campaignboard/internal/domain/chart"
	"github.com/okian/campaignboard/internal/domain/dataset"
	"github.com/okian/campaignboard/internal/domain/model"
	"github.com/okian/campaignboard/internal/domain/types"
	"github.com/okian/campaignboard/pkg/logger"
	"github.com/okian/campaignboard/pkg/metrics"
)

// Service implements the API dependencies for the campaign dashboards.
type Service struct {
	mu sync.RWMutex

	// Core components
	store    *repository.Store
	watcher  *repository.Watcher
	cron     *cron.Cron
	warmQ    *queue.InMemoryQueue
	pool     *worker.Pool
	renderer *render.Renderer
	compiled []*page
	byID     map[string]*page

	// Configuration
	pages           []config.Page
	campaigns       []config.Campaign
	dataDir         string
	referenceYear   int
	watchFiles      bool
	refreshSchedule string
	preload         bool
	warmWorkers     int
	chartWidth      int
	panelHeight     int
	maxPreviewRows  int

	// State
	started bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithPages sets the dashboard pages in display order.
func WithPages(pages []config.Page) Option {
	return func(s *Service) {
		s.pages = append([]config.Page(nil), pages...)
	}
}

// WithCampaigns sets the campaign windows pages may name.
func WithCampaigns(campaigns []config.Campaign) Option {
	return func(s *Service) {
		s.campaigns = append([]config.Campaign(nil), campaigns...)
	}
}

// WithDataDir sets the directory relative page sources resolve against.
func WithDataDir(dir string) Option {
	return func(s *Service) {
		if dir != "" {
			s.dataDir = dir
		}
	}
}

// WithReferenceYear sets the leap year calendar keys are stamped onto.
func WithReferenceYear(year int) Option {
	return func(s *Service) {
		if model.IsLeapYear(year) {
			s.referenceYear = year
		}
	}
}

// WithWatchFiles turns the source file watcher on or off.
func WithWatchFiles(enabled bool) Option {
	return func(s *Service) {
		s.watchFiles = enabled
	}
}

// WithRefreshSchedule sets the cron spec of the revalidation job. Empty
// disables it.
func WithRefreshSchedule(spec string) Option {
	return func(s *Service) {
		s.refreshSchedule = spec
	}
}

// WithPreload loads every page's dataset on Start.
func WithPreload(enabled bool) Option {
	return func(s *Service) {
		s.preload = enabled
	}
}

// WithWarmWorkers sets how many workers reload pages in the background.
func WithWarmWorkers(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.warmWorkers = n
		}
	}
}

// WithChartSize sets the rendered width and per-panel height in pixels.
func WithChartSize(width, panelHeight int) Option {
	return func(s *Service) {
		if width > 0 {
			s.chartWidth = width
		}
		if panelHeight > 0 {
			s.panelHeight = panelHeight
		}
	}
}

// WithMaxPreviewRows caps the rows returned by Preview.
func WithMaxPreviewRows(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxPreviewRows = n
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// FromConfig translates cfg into options.
func FromConfig(cfg *config.Config) []Option {
	return []Option{
		WithPages(cfg.Pages),
		WithCampaigns(cfg.Campaigns),
		WithDataDir(cfg.DataDir),
		WithReferenceYear(cfg.ReferenceYear),
		WithWatchFiles(cfg.WatchFiles),
		WithRefreshSchedule(cfg.RefreshSchedule),
		WithPreload(cfg.Preload),
		WithWarmWorkers(cfg.WarmWorkers),
		WithChartSize(cfg.ChartWidth, cfg.PanelHeight),
		WithMaxPreviewRows(cfg.MaxPreviewRows),
	}
}

// New constructs a new Service with default configuration: the stock pages
// and campaigns, sources in the working directory, no watcher and no
// scheduled refresh.
func New(opts ...Option) *Service {
	s := &Service{
		pages:          config.DefaultPages(),
		campaigns:      config.DefaultCampaigns(),
		dataDir:        ".",
		referenceYear:  model.DefaultReferenceYear,
		warmWorkers:    2,
		chartWidth:     1200,
		panelHeight:    420,
		maxPreviewRows: 500,
		logger:         nil, // Will be replaced when service starts
	}

	// Apply all options
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start compiles the pages and starts the store, the watcher and the
// refresh job. Calling Start on a started service does nothing.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	// Initialize logger if not already set
	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting dashboard service...")

	compiled, err := s.compilePages()
	if err != nil {
		return fmt.Errorf("compile pages: %w", err)
	}
	s.compiled = compiled
	s.byID = make(map[string]*page, len(compiled))
	for _, p := range compiled {
		s.byID[p.cfg.ID] = p
	}

	s.store = repository.NewStore(ctx)
	s.renderer = render.New(
		render.WithWidth(s.chartWidth),
		render.WithPanelHeight(s.panelHeight),
	)
	s.warmQ = queue.NewInMemoryQueue(queue.WithCapacity(4 * len(compiled)))

	if s.watchFiles {
		if err := s.startWatcher(ctx); err != nil {
			s.stopComponents()
			return err
		}
	}

	if s.refreshSchedule != "" {
		s.cron = cron.New()
		store, q := s.store, s.warmQ
		if err := s.cron.AddFunc(s.refreshSchedule, func() { s.revalidate(store, q, compiled) }); err != nil {
			s.stopComponents()
			return fmt.Errorf("schedule refresh %q: %w", s.refreshSchedule, err)
		}
		s.cron.Start()
	}

	s.pool = worker.NewPool(s.warmWorkers, s.warmQ, s, worker.WithLogger(s.logger.Named("warm")))
	s.pool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "dashboard service started",
		logger.Int("pages", len(compiled)),
		logger.String("dataDir", s.dataDir),
		logger.Bool("watchFiles", s.watchFiles),
		logger.String("refreshSchedule", s.refreshSchedule),
		logger.Int("warmWorkers", s.pool.Size()),
	)

	if s.preload {
		for _, p := range compiled {
			s.warmQ.Enqueue(ctx, queue.Job{Page: p.cfg.ID, Reason: queue.ReasonPreload})
		}
	}

	return nil
}

// enqueue queues a warm-up of every page reading the source key.
func enqueue(ctx context.Context, q queue.Queue, pages []*page, key, reason string) {
	for _, p := range pages {
		if p.key == key {
			q.Enqueue(ctx, queue.Job{Page: p.cfg.ID, Reason: reason})
		}
	}
}

// Warm loads a page's dataset into the store. The warm workers call it.
func (s *Service) Warm(ctx context.Context, id string) error {
	p, err := s.lookup(id)
	if err != nil {
		return err
	}
	_, err = s.load(ctx, p)
	return err
}

func (s *Service) startWatcher(ctx context.Context) error {
	w, err := repository.NewWatcher(s.store, s.logger.Named("watcher"))
	if err != nil {
		return err
	}
	for _, p := range s.compiled {
		if err := w.Watch(p.source); err != nil {
			// The page still works; it just is not refreshed on change.
			s.logger.Warn(ctx, "cannot watch page source",
				logger.String("page", p.cfg.ID),
				logger.String("source", p.source),
				logger.Error(err))
		}
	}
	pages, q := s.compiled, s.warmQ
	w.OnInvalidate = func(key string) {
		enqueue(ctx, q, pages, key, queue.ReasonWatch)
	}
	w.Run(ctx)
	s.watcher = w
	return nil
}

// revalidate is the scheduled refresh job. Dropped datasets are queued for
// reload.
func (s *Service) revalidate(store *repository.Store, q queue.Queue, pages []*page) {
	ctx := context.Background()
	dropped, err := store.Revalidate(ctx)
	if err != nil {
		s.logger.Warn(ctx, "dataset revalidation failed", logger.Error(err))
		return
	}
	if len(dropped) > 0 {
		s.logger.Info(ctx, "dropped stale datasets", logger.Strings("paths", dropped))
	}
	for _, key := range dropped {
		enqueue(ctx, q, pages, key, queue.ReasonRefresh)
	}
}

// Stop stops the refresh job, the watcher and the warm workers and releases
// the store.
func (s *Service) Stop() {
	ctx := context.Background()

	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.logger.Info(ctx, "stopping dashboard service...")
	s.started = false
	pool := s.pool
	s.pool = nil
	s.mu.Unlock()

	// Workers take the read lock in Warm, so they are drained unlocked.
	if pool != nil {
		if err := pool.Shutdown(ctx); err != nil {
			s.logger.Warn(ctx, "warm workers did not stop", logger.Error(err))
		}
	}

	s.mu.Lock()
	s.stopComponents()
	s.mu.Unlock()
	s.logger.Info(ctx, "dashboard service stopped")
}

func (s *Service) stopComponents() {
	if s.cron != nil {
		s.cron.Stop()
		s.cron = nil
	}
	if s.watcher != nil {
		_ = s.watcher.Close()
		s.watcher = nil
	}
	if s.warmQ != nil {
		_ = s.warmQ.Close()
	}
	if s.store != nil {
		_ = s.store.Close()
	}
}

// lookup resolves a page id on a started service.
func (s *Service) lookup(id string) (*page, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.started {
		return nil, ErrNotStarted
	}
	p, ok := s.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrPageNotFound, id)
	}
	return p, nil
}

// load returns the memoized dataset of p.
func (s *Service) load(ctx context.Context, p *page) (*model.Dataset, error) {
	return s.store.Get(ctx, p.source, func(ctx context.Context, path string) (*model.Dataset, error) {
		start := time.Now()
		ds, err := dataset.Read(ctx, path, p.schema)
		elapsed := float64(time.Since(start).Nanoseconds()) / 1e6
		if err != nil {
			metrics.RecordDatasetLoad(p.cfg.ID, "error", elapsed)
			return nil, err
		}
		metrics.RecordDatasetLoad(p.cfg.ID, "success", elapsed)
		metrics.UpdateDatasetShape(p.cfg.ID, len(ds.Records), ds.MissingCells)

		rows, cols := ds.Shape()
		s.logger.Info(ctx, "dataset loaded",
			logger.String("page", p.cfg.ID),
			logger.String("path", path),
			logger.Int("rows", rows),
			logger.Int("columns", cols),
			logger.Int("missingCells", ds.MissingCells),
			logger.Float64("ms", elapsed),
		)
		return ds, nil
	})
}

// Pages returns the page summaries in configured order.
func (s *Service) Pages(ctx context.Context) []types.PageSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]types.PageSummary, 0, len(s.compiled))
	for _, p := range s.compiled {
		out = append(out, p.summary())
	}
	return out
}

// Page returns a page with its dataset shape and control options.
func (s *Service) Page(ctx context.Context, id string) (types.PageDetail, error) {
	p, err := s.lookup(id)
	if err != nil {
		return types.PageDetail{}, err
	}
	ds, err := s.load(ctx, p)
	if err != nil {
		return types.PageDetail{}, err
	}

	rows, cols := ds.Shape()
	return types.PageDetail{
		PageSummary:  p.summary(),
		Rows:         rows,
		Columns:      cols,
		MissingCells: ds.MissingCells,
		LoadedAt:     ds.LoadedAt,
		ModTime:      ds.ModTime,
		Schema:       types.Columns(ds.Columns),
		FacetColumn:  p.layout.FacetColumn,
		Windows:      types.Windows(p.layout.Windows),
		Controls:     p.controls(ds),
	}, nil
}

// Dataset returns the memoized cleaned dataset of a page.
func (s *Service) Dataset(ctx context.Context, id string) (*model.Dataset, error) {
	p, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	return s.load(ctx, p)
}

// Preview returns up to limit cleaned rows from offset. A limit outside
// (0, max] is clamped to the configured maximum.
func (s *Service) Preview(ctx context.Context, id string, offset, limit int) (types.Preview, error) {
	ds, err := s.Dataset(ctx, id)
	if err != nil {
		return types.Preview{}, err
	}
	if limit <= 0 || limit > s.maxPreviewRows {
		limit = s.maxPreviewRows
	}

	t := dataset.Preview(ds, offset, limit)
	rows := t.Rows
	if rows == nil {
		rows = [][]any{}
	}
	return types.Preview{
		Columns: types.Columns(t.Columns),
		Rows:    rows,
		Offset:  t.Offset,
		Limit:   limit,
		Total:   t.Total,
	}, nil
}

// Chart builds the chart of a page for q.
func (s *Service) Chart(ctx context.Context, id string, q types.SelectionQuery) (model.ChartSpec, error) {
	_, spec, err := s.chart(ctx, id, q)
	return spec, err
}

func (s *Service) chart(ctx context.Context, id string, q types.SelectionQuery) (*model.Dataset, model.ChartSpec, error) {
	p, err := s.lookup(id)
	if err != nil {
		return nil, model.ChartSpec{}, err
	}
	ds, err := s.load(ctx, p)
	if err != nil {
		return nil, model.ChartSpec{}, err
	}

	start := time.Now()
	sel, err := p.selection(ds, q)
	if err == nil {
		var spec model.ChartSpec
		spec, err = chart.Build(ds, p.layout, sel)
		if err == nil {
			metrics.RecordChartBuild(p.cfg.ID, "success", float64(time.Since(start).Nanoseconds())/1e6)
			s.logger.Debug(ctx, "chart built",
				logger.String("page", p.cfg.ID),
				logger.String("metric", sel.Metric),
				logger.Int("panels", len(spec.Panels)),
			)
			return ds, spec, nil
		}
	}
	metrics.RecordChartBuild(p.cfg.ID, "error", float64(time.Since(start).Nanoseconds())/1e6)
	return nil, model.ChartSpec{}, err
}

// Render draws the chart of a page for q to w.
func (s *Service) Render(ctx context.Context, id string, q types.SelectionQuery, format render.Format, w io.Writer) error {
	_, spec, err := s.chart(ctx, id, q)
	if err != nil {
		return err
	}
	return s.renderer.Render(w, spec, format)
}

// Export writes the cleaned dataset of a page and the chart points for q to
// w as an XLSX workbook.
func (s *Service) Export(ctx context.Context, id string, q types.SelectionQuery, w io.Writer) error {
	ds, spec, err := s.chart(ctx, id, q)
	if err != nil {
		return err
	}
	return export.WriteXLSX(w, ds, &spec)
}

// Invalidate drops the cached dataset of a page. It reports whether one was
// cached.
func (s *Service) Invalidate(ctx context.Context, id string) (bool, error) {
	p, err := s.lookup(id)
	if err != nil {
		return false, err
	}
	dropped := s.store.Invalidate(p.source)
	if dropped {
		s.logger.Info(ctx, "dataset invalidated", logger.String("page", id))
	}
	return dropped, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":         s.started,
		"pages":           len(s.pages),
		"dataDir":         s.dataDir,
		"watchFiles":      s.watchFiles,
		"refreshSchedule": s.refreshSchedule,
	}

	if s.started {
		st := s.store.Stats()
		stats["datasets"] = st.Entries
		stats["cacheHits"] = st.Hits
		stats["cacheMisses"] = st.Misses
		stats["invalidations"] = st.Invalidations
		if s.watcher != nil {
			stats["watchedDirs"] = s.watcher.Dirs()
		}
		if s.pool != nil {
			stats["warmWorkers"] = s.pool.Size()
			stats["warmQueued"] = s.warmQ.Len(context.Background())
			stats["warmed"] = s.pool.Processed()
		}
	}

	return stats
}
