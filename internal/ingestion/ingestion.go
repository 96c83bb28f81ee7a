package ingestion

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/guttosm/spimexpulse/internal/domain/models"
	"github.com/guttosm/spimexpulse/internal/logger"
	"github.com/guttosm/spimexpulse/internal/storage"
)

const defaultStoreConcurrency = 10

// PageFetcher downloads listing pages and bulletins.
type PageFetcher interface {
	FetchPage(ctx context.Context, rawURL string, query url.Values) (string, error)
	FetchDocument(ctx context.Context, rawURL string) ([]byte, error)
}

// BulletinExtractor turns a bulletin into records.
type BulletinExtractor interface {
	Extract(data []byte, tradingDate time.Time) ([]models.TradingResult, error)
}

// Sink persists extracted records.
type Sink interface {
	InsertTradingResults(ctx context.Context, records []models.TradingResult) error
}

// Options bounds one ingestion run.
type Options struct {
	FirstPage        int // inclusive
	LastPage         int // inclusive
	MinYear          int
	MaxYear          int
	StoreConcurrency int // inserts in flight; fetch ceiling lives in the Fetcher
}

// Orchestrator discovers bulletins on the paginated listing and pushes each
// one through fetch, extract and store.
type Orchestrator struct {
	fetcher    PageFetcher
	extractor  BulletinExtractor
	sink       Sink
	base       *url.URL
	listingURL string
}

// NewOrchestrator validates baseURL and builds an Orchestrator.
// Relative bulletin hrefs are resolved against baseURL.
func NewOrchestrator(fetcher PageFetcher, extractor BulletinExtractor, sink Sink, baseURL, listingPath string) (*Orchestrator, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", baseURL)
	}
	path, err := url.Parse(listingPath)
	if err != nil {
		return nil, fmt.Errorf("parse listing path: %w", err)
	}
	return &Orchestrator{
		fetcher:    fetcher,
		extractor:  extractor,
		sink:       sink,
		base:       base,
		listingURL: base.ResolveReference(path).String(),
	}, nil
}

// Run fetches every listing page in [FirstPage, LastPage] concurrently and,
// for each in-range bulletin, fetches, extracts and stores it.
//
// Behavior:
//   - All page tasks start at once; each page spawns one task per bulletin.
//   - Inserts are bounded by a semaphore of StoreConcurrency.
//   - A failing task is logged and counted; siblings keep running.
//   - Panics inside tasks are recovered and counted.
//
// Returns after every task has finished.
func (o *Orchestrator) Run(ctx context.Context, opts Options) Report {
	start := time.Now()
	c := &counters{}

	if opts.FirstPage > opts.LastPage {
		logger.L().Warn().Int("first_page", opts.FirstPage).Int("last_page", opts.LastPage).Msg("empty page range, nothing to do")
		return c.snapshot(time.Since(start))
	}
	if opts.MinYear > opts.MaxYear {
		logger.L().Warn().Int("min_year", opts.MinYear).Int("max_year", opts.MaxYear).Msg("empty year range, nothing to do")
		return c.snapshot(time.Since(start))
	}
	if opts.StoreConcurrency <= 0 {
		opts.StoreConcurrency = defaultStoreConcurrency
	}

	logger.L().Info().
		Int("first_page", opts.FirstPage).
		Int("last_page", opts.LastPage).
		Int("min_year", opts.MinYear).
		Int("max_year", opts.MaxYear).
		Int("store_concurrency", opts.StoreConcurrency).
		Msg("ingestion start")

	run := &run{
		Orchestrator: o,
		opts:         opts,
		stats:        c,
		storeSem:     semaphore.NewWeighted(int64(opts.StoreConcurrency)),
		log:          logger.Component("ingestion"),
	}

	// Tasks never return errors: failures go to the report, so no sibling is canceled.
	for page := opts.FirstPage; page <= opts.LastPage; page++ {
		p := page
		run.g.Go(func() error {
			run.processPage(ctx, p)
			return nil
		})
	}
	_ = run.g.Wait()

	report := c.snapshot(time.Since(start))
	logger.L().Info().Object("report", report).Msg("ingestion finished")
	return report
}

// run holds the state shared by the tasks of one Run call.
type run struct {
	*Orchestrator
	opts     Options
	stats    *counters
	storeSem *semaphore.Weighted
	g        errgroup.Group
	log      zerolog.Logger
}

func (r *run) processPage(ctx context.Context, page int) {
	log := r.log.With().Int("page", page).Logger()
	defer r.recoverTask(&log)

	r.stats.pagesAttempted.Add(1)
	markup, err := r.fetcher.FetchPage(ctx, r.listingURL, url.Values{"page": {"page-" + strconv.Itoa(page)}})
	if err != nil {
		r.stats.pagesFailed.Add(1)
		r.stats.fetchFailures.Add(1)
		log.Error().Err(err).Str("kind", "fetch").Msg("listing page failed")
		return
	}

	links, err := ExtractLinks(strings.NewReader(markup), r.opts.MinYear, r.opts.MaxYear)
	if err != nil {
		r.stats.pagesFailed.Add(1)
		log.Error().Err(err).Str("kind", "parse").Msg("listing page unreadable")
		return
	}
	log.Info().Int("links", len(links)).Msg("listing page parsed")

	for _, link := range links {
		docURL, err := r.resolve(link.URL)
		if err != nil {
			r.stats.fetchFailures.Add(1)
			log.Error().Err(err).Str("href", link.URL).Str("kind", "fetch").Msg("bad bulletin href")
			continue
		}
		r.stats.documentsFound.Add(1)
		date := link.TradingDate
		r.g.Go(func() error {
			r.processDocument(ctx, page, docURL, date)
			return nil
		})
	}
}

func (r *run) processDocument(ctx context.Context, page int, docURL string, tradingDate time.Time) {
	log := r.log.With().
		Int("page", page).
		Str("url", docURL).
		Str("trading_date", tradingDate.Format(dateLayout)).
		Logger()
	defer r.recoverTask(&log)

	start := time.Now()
	data, err := r.fetcher.FetchDocument(ctx, docURL)
	if err != nil {
		r.stats.fetchFailures.Add(1)
		log.Error().Err(err).Str("kind", "fetch").Msg("bulletin download failed")
		return
	}

	records, err := r.extractor.Extract(data, tradingDate)
	if err != nil {
		r.stats.extractFailures.Add(1)
		log.Error().Err(err).Str("kind", "extract").Msg("bulletin extraction failed")
		return
	}
	if len(records) == 0 {
		r.stats.documentsEmpty.Add(1)
		log.Info().Msg("bulletin has no trades")
		return
	}

	if err := r.storeSem.Acquire(ctx, 1); err != nil {
		r.stats.storeFailures.Add(1)
		log.Error().Err(err).Str("kind", "store").Msg("store slot unavailable")
		return
	}
	err = r.sink.InsertTradingResults(ctx, records)
	r.storeSem.Release(1)
	if err != nil {
		r.stats.storeFailures.Add(1)
		log.Error().Err(err).Str("kind", "store").Int("records", len(records)).Msg("bulletin store failed")
		return
	}

	r.stats.documentsStored.Add(1)
	r.stats.recordsStored.Add(int64(len(records)))
	log.Info().Int("records", len(records)).Dur("elapsed", time.Since(start)).Msg("bulletin stored")
}

func (r *run) recoverTask(log *zerolog.Logger) {
	if p := recover(); p != nil {
		r.stats.panics.Add(1)
		log.Error().Str("kind", "panic").Interface("panic", p).Msg("task panicked")
	}
}

func (o *Orchestrator) resolve(href string) (string, error) {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return "", fmt.Errorf("parse href %q: %w", href, err)
	}
	return o.base.ResolveReference(ref).String(), nil
}

// Settings wires the production collaborators for ProcessListing.
type Settings struct {
	BaseURL     string
	ListingPath string
	Fetcher     FetcherOptions
}

// repoCtor is an indirection for creating the repository; tests can override this.
var repoCtor = func(db *sql.DB) storage.TradingRepository {
	return storage.NewTradingRepository(db)
}

// ProcessListing runs a full ingestion against db using the HTTP fetcher and
// the spreadsheet extractor.
//
// Returns:
//   - Report: per-run counters (failures included).
//   - error: only when the collaborators cannot be built.
func ProcessListing(ctx context.Context, db *sql.DB, settings Settings, opts Options) (Report, error) {
	orch, err := NewOrchestrator(
		NewFetcher(settings.Fetcher),
		NewExtractor(),
		repoCtor(db),
		settings.BaseURL,
		settings.ListingPath,
	)
	if err != nil {
		return Report{}, err
	}
	return orch.Run(ctx, opts), nil
}
