package proxy

import (
	"fmt"
	"io"
	mathrand "math/rand"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"hxcodewarrior/ctripcrawler/logger"
)

// Info holds a single proxy entry
type Info struct {
	Host    string
	Port    int
	Type    string
	Country string
}

// URL renders the proxy as a URL usable in an http.Transport
func (p Info) URL() *url.URL {
	u, _ := url.Parse(fmt.Sprintf("%s://%s:%d", p.Type, p.Host, p.Port))
	return u
}

// Manager keeps a pool of proxies and hands out random picks before requests.
// A static list can be supplied at construction; FetchRemote optionally tops
// the pool up from the public spys.me list.
type Manager struct {
	mu         sync.RWMutex
	proxies    []Info
	lastUpdate time.Time
	rnd        *mathrand.Rand
}

// NewManager creates a manager seeded with statically configured proxies.
// Entries are host:port strings; entries that don't parse are dropped.
func NewManager(static []string) *Manager {
	m := &Manager{
		rnd: mathrand.New(mathrand.NewSource(time.Now().UnixNano())),
	}
	for _, entry := range static {
		if info, ok := parseEntry(entry); ok {
			m.proxies = append(m.proxies, info)
		}
	}
	return m
}

func parseEntry(entry string) (Info, bool) {
	entry = strings.TrimSpace(entry)
	entry = strings.TrimPrefix(entry, "socks5://")
	entry = strings.TrimPrefix(entry, "http://")
	parts := strings.Split(entry, ":")
	if len(parts) != 2 {
		return Info{}, false
	}
	host := parts[0]
	if net.ParseIP(host) == nil && !strings.Contains(host, ".") {
		return Info{}, false
	}
	port, err := strconv.Atoi(parts[1])
	if err != nil || port <= 0 || port > 65535 {
		return Info{}, false
	}
	return Info{Host: host, Port: port, Type: "socks5"}, true
}

// Size returns the number of proxies in the pool
func (m *Manager) Size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.proxies)
}

// Random returns a random proxy from the pool, or nil when the pool is empty
func (m *Manager) Random() *Info {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.proxies) == 0 {
		return nil
	}
	p := m.proxies[m.rnd.Intn(len(m.proxies))]
	return &p
}

// FetchRemote fetches SOCKS5 proxies from spys.me and adds them to the pool
func (m *Manager) FetchRemote() error {
	logger.Debug("Fetching SOCKS5 proxies from spys.me")

	client := &http.Client{Timeout: 30 * time.Second}
	req, err := http.NewRequest(http.MethodGet, "https://spys.me/socks.txt", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %v", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	req.Header.Set("Accept", "text/plain,*/*")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch spys.me: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("spys.me returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %v", err)
	}

	var fetched []Info
	// Each line contains IP:PORT CountryCode-Anonymity-SSL-Google
	for _, line := range strings.Split(string(body), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") || !strings.Contains(line, ":") {
			continue
		}

		fields := strings.Fields(line)
		info, ok := parseEntry(fields[0])
		if !ok || net.ParseIP(info.Host) == nil {
			continue
		}

		if len(fields) >= 2 {
			if parts := strings.Split(fields[1], "-"); len(parts) >= 1 {
				info.Country = parts[0]
			}
		}
		fetched = append(fetched, info)
	}

	if len(fetched) == 0 {
		return fmt.Errorf("no proxies found")
	}

	m.mu.Lock()
	m.proxies = append(m.proxies, fetched...)
	m.lastUpdate = time.Now()
	m.mu.Unlock()

	logger.Info("Added %d SOCKS5 proxies from spys.me", len(fetched))
	return nil
}

// Stats returns current pool statistics for startup logging
func (m *Manager) Stats() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := map[string]interface{}{
		"total_proxies": len(m.proxies),
		"last_update":   m.lastUpdate,
	}
	return stats
}
