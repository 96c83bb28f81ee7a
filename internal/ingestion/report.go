package ingestion

import (
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// Report summarizes one ingestion run. Failures are counted by kind;
// none of them aborts the run.
type Report struct {
	PagesAttempted  int64
	PagesFailed     int64
	DocumentsFound  int64
	DocumentsStored int64
	DocumentsEmpty  int64
	RecordsStored   int64
	FetchFailures   int64
	ExtractFailures int64
	StoreFailures   int64
	Panics          int64
	Elapsed         time.Duration
}

// Failures is the total number of failed tasks.
func (r Report) Failures() int64 {
	return r.FetchFailures + r.ExtractFailures + r.StoreFailures + r.Panics
}

// MarshalZerologObject lets a Report be logged with Object("report", r).
func (r Report) MarshalZerologObject(e *zerolog.Event) {
	e.Int64("pages_attempted", r.PagesAttempted).
		Int64("pages_failed", r.PagesFailed).
		Int64("documents_found", r.DocumentsFound).
		Int64("documents_stored", r.DocumentsStored).
		Int64("documents_empty", r.DocumentsEmpty).
		Int64("records_stored", r.RecordsStored).
		Int64("fetch_failures", r.FetchFailures).
		Int64("extract_failures", r.ExtractFailures).
		Int64("store_failures", r.StoreFailures).
		Int64("panics", r.Panics).
		Dur("elapsed", r.Elapsed)
}

// counters is the concurrent accumulator behind Report.
type counters struct {
	pagesAttempted  atomic.Int64
	pagesFailed     atomic.Int64
	documentsFound  atomic.Int64
	documentsStored atomic.Int64
	documentsEmpty  atomic.Int64
	recordsStored   atomic.Int64
	fetchFailures   atomic.Int64
	extractFailures atomic.Int64
	storeFailures   atomic.Int64
	panics          atomic.Int64
}

func (c *counters) snapshot(elapsed time.Duration) Report {
	return Report{
		PagesAttempted:  c.pagesAttempted.Load(),
		PagesFailed:     c.pagesFailed.Load(),
		DocumentsFound:  c.documentsFound.Load(),
		DocumentsStored: c.documentsStored.Load(),
		DocumentsEmpty:  c.documentsEmpty.Load(),
		RecordsStored:   c.recordsStored.Load(),
		FetchFailures:   c.fetchFailures.Load(),
		ExtractFailures: c.extractFailures.Load(),
		StoreFailures:   c.storeFailures.Load(),
		Panics:          c.panics.Load(),
		Elapsed:         elapsed,
	}
}
