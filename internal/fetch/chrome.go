package fetch

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/chromedp"

	"hxcodewarrior/ctripcrawler/helpers"
	"hxcodewarrior/ctripcrawler/internal/ratelimit"
	"hxcodewarrior/ctripcrawler/logger"
	"hxcodewarrior/ctripcrawler/pkg/errors"
)

// ChromeFetcher drives a headless browser for pages that need client-side
// rendering. When a request carries a comment category, the fetcher clicks
// the matching tab before capturing the page so the category's comment list
// is present in the returned HTML.
type ChromeFetcher struct {
	allocCtx    context.Context
	cancelAlloc context.CancelFunc
	limiter     *ratelimit.Limiter
	pageTimeout time.Duration
	log         *logger.Logger
}

// NewChromeFetcher starts a browser allocator. Call Close when done to shut
// the browser down.
func NewChromeFetcher(ctx context.Context, headless bool, pageTimeout time.Duration, limiter *ratelimit.Limiter) *ChromeFetcher {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.UserAgent(helpers.RandomUserAgent()),
	)

	allocCtx, cancel := chromedp.NewExecAllocator(ctx, opts...)
	return &ChromeFetcher{
		allocCtx:    allocCtx,
		cancelAlloc: cancel,
		limiter:     limiter,
		pageTimeout: pageTimeout,
		log:         logger.ForFetcher("chrome"),
	}
}

// Fetch renders one page in a fresh tab and returns its HTML. A request that
// carries a PageURL is a comment-page request: the fetcher navigates to the
// rendered page instead of the API endpoint, clicks the category tab and
// advances the pagination to the requested page before capturing the HTML.
func (f *ChromeFetcher) Fetch(ctx context.Context, req FetchRequest) (RawPayload, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return RawPayload{}, err
	}

	target := req.Endpoint
	if req.PageURL != "" {
		target = req.PageURL
	}

	tabCtx, cancelTab := chromedp.NewContext(f.allocCtx)
	defer cancelTab()
	tabCtx, cancelTimeout := context.WithTimeout(tabCtx, f.pageTimeout)
	defer cancelTimeout()

	tasks := chromedp.Tasks{
		chromedp.Navigate(target),
		chromedp.WaitReady("body", chromedp.ByQuery),
	}
	if req.Category != "" {
		// Comment categories are revealed by clicking the matching tag span.
		selector := fmt.Sprintf(`//span[contains(@class,"hotTag") and contains(text(),%q)]`, req.Category)
		tasks = append(tasks,
			chromedp.Click(selector, chromedp.BySearch),
			chromedp.Sleep(2*time.Second),
		)
	}
	for page := 1; page < req.Page; page++ {
		tasks = append(tasks,
			chromedp.Click(`//a[contains(text(),"下一页")]`, chromedp.BySearch),
			chromedp.Sleep(time.Second),
		)
	}

	var html string
	tasks = append(tasks, chromedp.OuterHTML("html", &html, chromedp.ByQuery))

	if err := chromedp.Run(tabCtx, tasks); err != nil {
		return RawPayload{}, errors.NewNetwork(req.Endpoint, "browser navigation failed", err)
	}

	if !strings.Contains(html, "<body") {
		return RawPayload{}, errors.NewNetwork(req.Endpoint, "page rendered without a body", nil)
	}

	f.log.Debug().Str("endpoint", req.Endpoint).Int("bytes", len(html)).Msg("Rendered page")
	return RawPayload{Kind: KindHTML, Body: []byte(html)}, nil
}

// Close shuts the browser allocator down
func (f *ChromeFetcher) Close() {
	f.cancelAlloc()
}
