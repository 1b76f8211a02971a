package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"hxcodewarrior/ctripcrawler/helpers"
	"hxcodewarrior/ctripcrawler/internal/ratelimit"
	"hxcodewarrior/ctripcrawler/logger"
	"hxcodewarrior/ctripcrawler/pkg/errors"
	"hxcodewarrior/ctripcrawler/services/cache"
)

// APIFetcher talks to the site's JSON endpoints directly over HTTP. GET
// requests return HTML payloads (static detail pages), POST requests return
// JSON. A shared cache key per endpoint host blocks all workers for the
// configured time once one of them gets rate limited.
type APIFetcher struct {
	client    *http.Client
	limiter   *ratelimit.Limiter
	cacheSvc  cache.CacheService
	blockTime time.Duration
	log       *logger.Logger
}

// NewAPIFetcher creates a direct HTTP fetcher. cacheSvc may be nil, in which
// case rate-limit blocking is per-process only.
func NewAPIFetcher(timeout time.Duration, limiter *ratelimit.Limiter, cacheSvc cache.CacheService, blockTime time.Duration) *APIFetcher {
	return &APIFetcher{
		client:    &http.Client{Timeout: timeout},
		limiter:   limiter,
		cacheSvc:  cacheSvc,
		blockTime: blockTime,
		log:       logger.ForFetcher("api"),
	}
}

// Fetch performs one round trip and returns the raw payload
func (f *APIFetcher) Fetch(ctx context.Context, req FetchRequest) (RawPayload, error) {
	blockKey, host := f.blockKey(req.Endpoint)

	if f.cacheSvc != nil && blockKey != "" {
		if _, err := f.cacheSvc.Get(blockKey); err == nil {
			return RawPayload{}, errors.NewRateLimit(host, fmt.Sprintf("%d", int(f.blockTime.Seconds())))
		}
	}

	if err := f.limiter.Wait(ctx); err != nil {
		return RawPayload{}, err
	}

	client := f.client
	if p := f.limiter.Proxy(); p != nil {
		proxyURL := p.URL()
		client = &http.Client{
			Timeout: f.client.Timeout,
			Transport: &http.Transport{
				Proxy: http.ProxyURL(proxyURL),
			},
		}
	}

	var (
		body   []byte
		status int
		err    error
	)
	if req.Method == http.MethodPost {
		payload, merr := json.Marshal(req.Body)
		if merr != nil {
			return RawPayload{}, errors.NewPermanent(host, "failed to encode request payload", merr)
		}
		body, status, err = helpers.PostJSON(client, req.Endpoint, payload)
	} else {
		body, status, err = helpers.GetHTML(client, req.Endpoint)
	}

	if err != nil && status == 0 {
		return RawPayload{}, errors.NewNetwork(host, "request failed", err)
	}

	switch {
	case status == http.StatusTooManyRequests || status == 430:
		if f.cacheSvc != nil && blockKey != "" {
			f.cacheSvc.Set(blockKey, []byte(fmt.Sprintf("%d", int(f.blockTime.Seconds()))), f.blockTime)
		}
		f.log.Warn().Str("endpoint", req.Endpoint).Msg("Rate limited by endpoint")
		return RawPayload{}, errors.NewRateLimit(host, "")
	case status >= 500:
		return RawPayload{}, errors.NewNetwork(host, fmt.Sprintf("server error: %d", status), nil)
	case status != http.StatusOK:
		return RawPayload{}, errors.NewPermanent(host, fmt.Sprintf("unexpected status code: %d", status), nil)
	case err != nil:
		return RawPayload{}, errors.NewNetwork(host, "failed to read response", err)
	}

	kind := KindJSON
	if req.Method != http.MethodPost {
		kind = KindHTML
	}
	return RawPayload{Kind: kind, Body: body}, nil
}

func (f *APIFetcher) blockKey(endpoint string) (string, string) {
	u, err := url.Parse(endpoint)
	if err != nil || u.Host == "" {
		return "", endpoint
	}
	return "block:" + u.Host, u.Host
}
