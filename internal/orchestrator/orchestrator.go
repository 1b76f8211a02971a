package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"hxcodewarrior/ctripcrawler/helpers"
	"hxcodewarrior/ctripcrawler/internal/extract"
	"hxcodewarrior/ctripcrawler/internal/fetch"
	"hxcodewarrior/ctripcrawler/internal/paging"
	"hxcodewarrior/ctripcrawler/internal/progress"
	"hxcodewarrior/ctripcrawler/internal/sink"
	"hxcodewarrior/ctripcrawler/logger"
	"hxcodewarrior/ctripcrawler/pkg/errors"
	"hxcodewarrior/ctripcrawler/services/publisher"
)

// Target is one attraction to crawl end to end. Either ID, URL or Name must
// identify it: a missing ID is extracted from the URL or resolved through
// the search endpoint.
type Target struct {
	ID   string
	Name string
	URL  string
}

// Key returns the identifier used for checkpoints and output file names
func (t Target) Key() string {
	if t.ID != "" {
		return "t" + t.ID
	}
	return helpers.SafeFileName(t.Name)
}

// Report aggregates the outcome of one run
type Report struct {
	Succeeded     int
	Failed        int
	FailedTargets []Target
}

// Options tune one crawl run
type Options struct {
	WorkerCount    int
	MaxRetries     int
	RetryBackoff   time.Duration
	RetryAllErrors bool

	PageSize int
	MaxPages int

	SearchURL      string
	CommentListURL string
	DetailURL      string // template, %s is replaced with the sight id

	SummaryFile string
}

// Orchestrator drives queued targets through the fetch-extract-persist
// pipeline under a bounded worker pool, with per-target retry and
// checkpoint-based resumption
type Orchestrator struct {
	fetcher  fetch.Fetcher
	comments *extract.CommentExtractor
	detail   *extract.DetailExtractor
	search   *extract.SearchExtractor
	sink     sink.RecordSink
	store    progress.Store
	pub      publisher.Publisher // optional
	opts     Options
	log      *logger.Logger

	mu     sync.Mutex
	queue  []Target
	report Report

	// resume is the single checkpoint loaded at run start; it is consumed
	// by the first worker whose target matches it
	resumeMu sync.Mutex
	resume   *progress.Checkpoint
}

// New creates an orchestrator. pub may be nil when downstream publishing is
// disabled.
func New(fetcher fetch.Fetcher, recordSink sink.RecordSink, store progress.Store, pub publisher.Publisher, opts Options) *Orchestrator {
	return &Orchestrator{
		fetcher:  fetcher,
		comments: extract.NewCommentExtractor(),
		detail:   extract.NewDetailExtractor(),
		search:   extract.NewSearchExtractor(),
		sink:     recordSink,
		store:    store,
		pub:      pub,
		opts:     opts,
		log:      logger.ForWorker(0),
	}
}

// Enqueue adds targets to the pending queue. Duplicates are allowed; the
// caller dedupes if it cares.
func (o *Orchestrator) Enqueue(targets []Target) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.queue = append(o.queue, targets...)
}

// Run blocks until the queue drains or ctx is canceled, then returns the
// aggregate report. One target's permanent failure never aborts the others.
func (o *Orchestrator) Run(ctx context.Context) Report {
	if cp, err := o.store.Load(); err != nil {
		o.log.Warn().Err(err).Msg("Failed to load checkpoint, starting fresh")
	} else if cp != nil {
		o.log.Info().
			Str("target", cp.Target).
			Str("category", cp.Category).
			Int("page", cp.Page).
			Msg("Resuming from checkpoint")
		o.resume = cp
	}

	var wg sync.WaitGroup
	for i := 0; i < o.opts.WorkerCount; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			o.workerLoop(ctx, id)
		}(i + 1)
	}
	wg.Wait()

	if o.pub != nil {
		if err := o.pub.TrimStreams(); err != nil {
			logger.LogError("publisher", err, "stream trimming failed")
		}
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	return o.report
}

func (o *Orchestrator) workerLoop(ctx context.Context, id int) {
	log := logger.ForWorker(id)
	for {
		if ctx.Err() != nil {
			log.Info().Msg("Worker stopping on cancellation")
			return
		}
		target, ok := o.dequeue()
		if !ok {
			return
		}

		start := time.Now()
		if err := o.runTarget(ctx, target); err != nil {
			if ctx.Err() != nil {
				// canceled mid-target, counts reflect completed attempts only
				return
			}
			log.Error().
				Err(err).
				Str("target", target.Name).
				Msg("Target permanently failed")
			o.recordFailure(target)
			continue
		}
		log.Info().
			Str("target", target.Name).
			Dur("elapsed", time.Since(start)).
			Msg("Target crawled")
		o.recordSuccess()
	}
}

// runTarget retries the whole per-target pipeline up to MaxRetries attempts
// with a fixed backoff between attempts
func (o *Orchestrator) runTarget(ctx context.Context, target Target) error {
	var lastErr error
	for attempt := 1; attempt <= o.opts.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = o.crawlTarget(ctx, target)
		if lastErr == nil {
			return nil
		}

		logger.ForTarget(target.Name).Warn().
			Err(lastErr).
			Int("attempt", attempt).
			Int("max_retries", o.opts.MaxRetries).
			Msg("Crawl attempt failed")

		if !o.opts.RetryAllErrors && !errors.Retryable(lastErr) {
			return lastErr
		}
		if attempt == o.opts.MaxRetries {
			break
		}
		if err := sleepCtx(ctx, o.opts.RetryBackoff); err != nil {
			return err
		}
	}
	return lastErr
}

// crawlTarget runs one full pipeline attempt: resolve the sight id, fetch
// and persist the attraction detail, then paginate every comment category
func (o *Orchestrator) crawlTarget(ctx context.Context, target Target) error {
	log := logger.ForTarget(target.Name)

	sightID, err := o.resolveID(ctx, target)
	if err != nil {
		return err
	}
	target.ID = sightID

	cp := o.takeCheckpoint(target)

	if cp == nil {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := o.crawlDetail(ctx, target); err != nil {
			return err
		}
	} else {
		log.Info().
			Str("category", cp.Category).
			Int("page", cp.Page).
			Msg("Skipping completed work up to checkpoint")
	}

	startCategory := 0
	startPage := 1
	if cp != nil {
		if idx := extract.CategoryIndex(cp.Category); idx >= 0 {
			startCategory = idx
			startPage = cp.Page
		}
	}

	for i := startCategory; i < len(extract.Categories); i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		first := 1
		if i == startCategory {
			first = startPage
		}
		if err := o.crawlCategory(ctx, target, extract.Categories[i], first); err != nil {
			return err
		}
	}
	return nil
}

// resolveID finds the numeric sight id for a target: explicit id first, then
// the detail URL pattern, then a keyword search
func (o *Orchestrator) resolveID(ctx context.Context, target Target) (string, error) {
	if target.ID != "" {
		return target.ID, nil
	}
	if id := helpers.ExtractSightID(target.URL); id != "" {
		return id, nil
	}
	if target.Name == "" {
		return "", errors.NewValidation(target.URL, "target carries neither id, resolvable URL nor name")
	}

	payload, err := o.fetcher.Fetch(ctx, fetch.FetchRequest{
		Method:   http.MethodPost,
		Endpoint: o.opts.SearchURL,
		Body: map[string]interface{}{
			"action":   "online",
			"source":   "globalonline",
			"keyword":  target.Name,
			"pagenum":  1,
			"pagesize": 10,
		},
	})
	if err != nil {
		return "", err
	}

	id := o.search.ResolveSightID(payload)
	if id == "" {
		return "", errors.NewValidation(target.Name, "search returned no sight id")
	}
	return id, nil
}

// crawlDetail fetches the detail page, extracts the attraction record and
// appends it to the shared summary destination
func (o *Orchestrator) crawlDetail(ctx context.Context, target Target) error {
	payload, err := o.fetcher.Fetch(ctx, fetch.FetchRequest{
		Method:   http.MethodGet,
		Endpoint: o.detailPageURL(target),
	})
	if err != nil {
		return err
	}

	record, err := o.detail.Extract(payload)
	if err != nil {
		// a detail page that does not parse degrades to an empty record;
		// the comment crawl is still worth running
		logger.ForTarget(target.Name).Warn().Err(err).Msg("Detail extraction failed")
		record = extract.AttractionRecord{}
	}
	if record.Name == "" {
		record.Name = target.Name
	}

	return o.sink.Append(o.opts.SummaryFile, extract.AttractionHeader, [][]string{record.Row()})
}

// crawlCategory paginates one comment category from firstPage, stopping at
// the page-count bound or the first page with no extracted records
func (o *Orchestrator) crawlCategory(ctx context.Context, target Target, category extract.Category, firstPage int) error {
	log := logger.ForTarget(target.Name).WithField("category", category.Name)

	probe, err := o.fetchCommentPage(ctx, target, category, 1)
	if err != nil {
		return err
	}

	total := extract.TotalCount(probe, category)
	pages := paging.TotalPages(total, o.opts.PageSize, o.opts.MaxPages)
	if pages == 0 {
		log.Debug().Msg("Category has no comments")
		return nil
	}
	log.Debug().Int("total", total).Int("pages", pages).Msg("Paginating category")

	destination := fmt.Sprintf("%s_%s_comments.csv", target.Key(), category.Name)

	for page := firstPage; page <= pages; page++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		payload := probe
		if page != 1 {
			payload, err = o.fetchCommentPage(ctx, target, category, page)
			if err != nil {
				return err
			}
		}

		records := o.comments.Extract(payload)
		if len(records) == 0 {
			// no more data in this category, not an error
			log.Debug().Int("page", page).Msg("Empty page, stopping category")
			return nil
		}

		rows := make([][]string, 0, len(records))
		for _, r := range records {
			rows = append(rows, r.Row())
		}
		if err := o.sink.Append(destination, extract.CommentHeader, rows); err != nil {
			return err
		}

		o.publishPage(target, category, page, records)

		if err := o.store.Save(progress.Checkpoint{
			Target:   target.Key(),
			Category: category.Name,
			Page:     page,
			Index:    len(records),
		}); err != nil {
			log.Warn().Err(err).Msg("Failed to save checkpoint")
		}

		log.Debug().Int("page", page).Int("records", len(records)).Msg("Page persisted")
	}
	return nil
}

// detailPageURL returns the rendered detail page for a target
func (o *Orchestrator) detailPageURL(target Target) string {
	if target.URL != "" {
		return target.URL
	}
	return fmt.Sprintf(o.opts.DetailURL, target.ID)
}

// fetchCommentPage issues one comment-page request for a category. The
// request carries both renditions: the comment-list API call, and the
// rendered detail page plus category tab and page for a browser fetcher.
func (o *Orchestrator) fetchCommentPage(ctx context.Context, target Target, category extract.Category, page int) (fetch.RawPayload, error) {
	poiID := interface{}(target.ID)
	if n, err := strconv.Atoi(target.ID); err == nil {
		poiID = n
	}

	return o.fetcher.Fetch(ctx, fetch.FetchRequest{
		Method:   http.MethodPost,
		Endpoint: o.opts.CommentListURL,
		PageURL:  o.detailPageURL(target),
		Category: category.Label,
		Page:     page,
		Body: map[string]interface{}{
			"arg": map[string]interface{}{
				"channelType":  2,
				"collapseType": 0,
				"commentTagId": category.TagID,
				"pageIndex":    page,
				"pageSize":     o.opts.PageSize,
				"poiId":        poiID,
				"sourceType":   1,
				"sortType":     3,
				"starType":     0,
			},
			"head": map[string]interface{}{
				"cid":       "09031069112760102754",
				"ctok":      "",
				"cver":      "1.0",
				"lang":      "01",
				"sid":       "8888",
				"syscode":   "09",
				"auth":      "",
				"xsid":      "",
				"extension": []interface{}{},
			},
		},
	})
}

// publishPage hands one persisted page to the downstream stream, when
// publishing is enabled. Publish failures are logged, not escalated: the
// rows are already durable in the sink.
func (o *Orchestrator) publishPage(target Target, category extract.Category, page int, records []extract.CommentRecord) {
	if o.pub == nil {
		return
	}

	message, err := json.Marshal(map[string]interface{}{
		"target":   target.Key(),
		"name":     target.Name,
		"category": category.Name,
		"page":     page,
		"comments": records,
	})
	if err != nil {
		logger.LogError("publisher", err, "failed to encode page for %s", target.Name)
		return
	}
	if err := o.pub.Publish(target.Key(), message); err != nil {
		logger.LogError("publisher", err, "failed to publish page for %s", target.Name)
	}
}

// takeCheckpoint hands the loaded checkpoint to the target it belongs to,
// at most once
func (o *Orchestrator) takeCheckpoint(target Target) *progress.Checkpoint {
	o.resumeMu.Lock()
	defer o.resumeMu.Unlock()
	if o.resume == nil || o.resume.Target != target.Key() {
		return nil
	}
	cp := o.resume
	o.resume = nil
	return cp
}

func (o *Orchestrator) dequeue() (Target, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.queue) == 0 {
		return Target{}, false
	}
	target := o.queue[0]
	o.queue = o.queue[1:]
	return target, true
}

func (o *Orchestrator) recordSuccess() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.report.Succeeded++
}

func (o *Orchestrator) recordFailure(target Target) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.report.Failed++
	o.report.FailedTargets = append(o.report.FailedTargets, target)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
