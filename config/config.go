package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"hxcodewarrior/ctripcrawler/pkg/errors"
)

// Config represents the application configuration
type Config struct {
	// Crawl endpoints
	SearchURL      string
	CommentListURL string
	DetailURL      string // template, %s is replaced with the sight id

	// Orchestration
	WorkerCount    int
	MaxRetries     int
	RetryBackoff   time.Duration
	RetryAllErrors bool // retry permanent request errors too, like the old crawler variants

	// Pagination
	PageSize int
	MaxPages int

	// Rate limiting
	DelayMin          time.Duration
	DelayMax          time.Duration
	RequestsPerSecond float64
	BlockTime         time.Duration
	ProxyList         []string

	// Fetch
	UseChrome      bool
	ChromeHeadless bool
	HTTPTimeout    time.Duration

	// Output
	OutputDir    string
	SummaryFile  string
	ProgressFile string
	TargetsFile  string

	// Memcache configuration
	MemcacheAddr string

	// Redis configuration
	RedisAddr            string
	RedisDB              int
	RedisStream          string
	RedisStreamCount     int
	RedisStreamMaxLength int
	PublishEnabled       bool

	// Environment
	Environment string
}

// LoadConfig loads the configuration from environment variables with defaults
func LoadConfig() Config {
	workerCount, _ := strconv.Atoi(getEnv("WORKER_COUNT", "5"))
	maxRetries, _ := strconv.Atoi(getEnv("MAX_RETRIES", "3"))
	retryBackoff, _ := strconv.Atoi(getEnv("RETRY_BACKOFF_SECONDS", "5"))
	pageSize, _ := strconv.Atoi(getEnv("PAGE_SIZE", "10"))
	maxPages, _ := strconv.Atoi(getEnv("MAX_PAGES", "300"))
	delayMin, _ := strconv.Atoi(getEnv("DELAY_MIN_MS", "1000"))
	delayMax, _ := strconv.Atoi(getEnv("DELAY_MAX_MS", "3000"))
	rps, _ := strconv.ParseFloat(getEnv("REQUESTS_PER_SECOND", "1"), 64)
	blockTime, _ := strconv.Atoi(getEnv("BLOCK_TIME_SECONDS", "500"))
	httpTimeout, _ := strconv.Atoi(getEnv("HTTP_TIMEOUT_SECONDS", "10"))
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	redisStreamCount, _ := strconv.Atoi(getEnv("REDIS_STREAM_COUNT", "1"))
	redisStreamMaxLen, _ := strconv.Atoi(getEnv("REDIS_STREAM_MAX_LENGTH", "1000"))

	var proxies []string
	if raw := getEnv("PROXY_LIST", ""); raw != "" {
		for _, p := range strings.Split(raw, ",") {
			if p = strings.TrimSpace(p); p != "" {
				proxies = append(proxies, p)
			}
		}
	}

	return Config{
		SearchURL:      getEnv("SEARCH_URL", "https://m.ctrip.com/restapi/soa2/26872/search"),
		CommentListURL: getEnv("COMMENT_LIST_URL", "https://m.ctrip.com/restapi/soa2/13444/json/getCommentCollapseList"),
		DetailURL:      getEnv("DETAIL_URL", "https://you.ctrip.com/sight/t%s.html"),

		WorkerCount:    workerCount,
		MaxRetries:     maxRetries,
		RetryBackoff:   time.Duration(retryBackoff) * time.Second,
		RetryAllErrors: getEnv("RETRY_ALL_ERRORS", "false") == "true",

		PageSize: pageSize,
		MaxPages: maxPages,

		DelayMin:          time.Duration(delayMin) * time.Millisecond,
		DelayMax:          time.Duration(delayMax) * time.Millisecond,
		RequestsPerSecond: rps,
		BlockTime:         time.Duration(blockTime) * time.Second,
		ProxyList:         proxies,

		UseChrome:      getEnv("USE_CHROME", "false") == "true",
		ChromeHeadless: getEnv("CHROME_HEADLESS", "true") == "true",
		HTTPTimeout:    time.Duration(httpTimeout) * time.Second,

		OutputDir:    getEnv("OUTPUT_DIR", "Datasets"),
		SummaryFile:  getEnv("SUMMARY_FILE", "tourist_attraction_data.csv"),
		ProgressFile: getEnv("PROGRESS_FILE", "crawl_progress.csv"),
		TargetsFile:  getEnv("TARGETS_FILE", "targets.csv"),

		MemcacheAddr: getEnv("MEMCACHE_ADDR", "localhost:11211"),

		RedisAddr:            getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:              redisDB,
		RedisStream:          getEnv("REDIS_STREAM", "comments"),
		RedisStreamCount:     redisStreamCount,
		RedisStreamMaxLength: redisStreamMaxLen,
		PublishEnabled:       getEnv("PUBLISH_ENABLED", "false") == "true",

		Environment: getEnv("CRAWLER_ENVIRONMENT", "development"),
	}
}

// Validate checks the configuration for obviously broken values
func (c *Config) Validate() error {
	if c.WorkerCount <= 0 {
		return errors.NewConfiguration("worker count must be positive", nil)
	}
	if c.MaxRetries <= 0 {
		return errors.NewConfiguration("max retries must be positive", nil)
	}
	if c.PageSize <= 0 {
		return errors.NewConfiguration("page size must be positive", nil)
	}
	if c.MaxPages <= 0 {
		return errors.NewConfiguration("max pages must be positive", nil)
	}
	if c.DelayMin > c.DelayMax {
		return errors.NewConfiguration("delay range is inverted", nil)
	}
	if c.OutputDir == "" {
		return errors.NewConfiguration("output directory is required", nil)
	}
	return nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
