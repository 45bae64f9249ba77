// Package robots implements the narrow robots.txt subset honored by the
// crawler: User-agent/Disallow groups with a bespoke wildcard matcher
// (spec §4.3). It deliberately does not implement Allow, Crawl-delay, or
// specificity-based precedence — see SPEC_FULL.md's DOMAIN STACK section
// for why a full RFC parser (temoto/robotstxt) was dropped in favor of this.
package robots

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"sync"
)

// Fetch retrieves a URL and returns its status code and body. The registry
// only needs this much of an HTTP client's surface.
type Fetch func(ctx context.Context, url string) (status int, body []byte, err error)

// HTTPFetch adapts an *http.Client into a Fetch.
func HTTPFetch(client *http.Client) Fetch {
	return func(ctx context.Context, rawURL string) (int, []byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return 0, nil, err
		}
		resp, err := client.Do(req)
		if err != nil {
			return 0, nil, err
		}
		defer func() { _ = resp.Body.Close() }()
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return resp.StatusCode, nil, err
		}
		return resp.StatusCode, body, nil
	}
}

// hostRules is the parsed, selected disallow list for one host. A nil
// hostRules (or one with an empty disallows slice) means "allow all".
type hostRules struct {
	disallows []string
}

// Registry is a per-crawl, per-host cache of robots.txt rules. It is built
// incrementally as hosts are encountered and is otherwise read-only, so two
// concurrent crawls never share state (spec §9, "Global caches").
type Registry struct {
	fetch     Fetch
	userAgent string
	logger    *slog.Logger

	mu    sync.Mutex
	hosts map[string]*hostRules
}

// New creates a Registry that fetches robots.txt via fetch and evaluates
// rules against userAgent.
func New(fetch Fetch, userAgent string, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		fetch:     fetch,
		userAgent: userAgent,
		logger:    logger,
		hosts:     make(map[string]*hostRules),
	}
}

// ProcessHost fetches and parses {scheme}://{host}/robots.txt once. Calling
// it again for an already-processed host is a no-op. Non-2xx responses and
// network errors are treated as "no rules" (fail-open).
func (r *Registry) ProcessHost(ctx context.Context, scheme, host string) {
	r.mu.Lock()
	if _, ok := r.hosts[host]; ok {
		r.mu.Unlock()
		return
	}
	r.mu.Unlock()

	robotsURL := fmt.Sprintf("%s://%s/robots.txt", scheme, host)
	status, body, err := r.fetch(ctx, robotsURL)

	rules := &hostRules{}
	switch {
	case err != nil:
		r.logger.Warn("robots.txt fetch failed, allowing all", "host", host, "error", err)
	case status < 200 || status >= 300:
		r.logger.Debug("robots.txt not available, allowing all", "host", host, "status", status)
	default:
		parsed, perr := parse(body, r.userAgent)
		if perr != nil {
			r.logger.Warn("robots.txt parse failed, allowing all", "host", host, "error", perr)
		} else {
			rules = parsed
		}
	}

	r.mu.Lock()
	r.hosts[host] = rules
	r.mu.Unlock()
}

// IsAllowed reports whether rawURL may be fetched. A host with no processed
// rules, or any parse/match failure, fails open (returns true).
func (r *Registry) IsAllowed(rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		r.logger.Warn("robots match failed to parse URL, allowing", "url", rawURL, "error", err)
		return true
	}

	r.mu.Lock()
	rules, ok := r.hosts[parsed.Host]
	r.mu.Unlock()
	if !ok || rules == nil {
		return true
	}

	path := parsed.Path
	if path == "" {
		path = "/"
	}

	for _, pattern := range rules.disallows {
		if matchPattern(path, pattern) {
			return false
		}
	}
	return true
}

// parse implements the line-oriented subset described in spec §4.3: it
// reads User-agent/Disallow groups, selects the first group whose
// user-agent set matches "*" or (case-insensitively, as a substring) the
// configured UA, and returns that group's disallow patterns.
func parse(body []byte, userAgent string) (*hostRules, error) {
	type group struct {
		agents    []string
		disallows []string
	}
	var groups []*group
	var current *group

	scanner := bufio.NewScanner(strings.NewReader(string(body)))
	for scanner.Scan() {
		line := scanner.Text()
		if idx := strings.IndexByte(line, '#'); idx >= 0 {
			line = line[:idx]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)

		switch key {
		case "user-agent":
			if current == nil || len(current.disallows) > 0 {
				current = &group{}
				groups = append(groups, current)
			}
			current.agents = append(current.agents, strings.ToLower(value))
		case "disallow":
			if current == nil || value == "" {
				continue
			}
			current.disallows = append(current.disallows, value)
		default:
			// Unknown directives (Allow, Crawl-delay, Sitemap, ...) are
			// ignored; only the documented subset is honored.
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	lowerUA := strings.ToLower(userAgent)
	for _, g := range groups {
		for _, agent := range g.agents {
			if agent == "*" || (agent != "" && strings.Contains(lowerUA, agent)) {
				return &hostRules{disallows: g.disallows}, nil
			}
		}
	}
	return &hostRules{}, nil
}

// matchPattern implements the three-way wildcard rule from spec §4.3, in
// the documented precedence order: trailing "*" is a prefix match, leading
// "*" is a suffix match, an interior "*" is a glob anchored at both ends,
// and otherwise it is a plain prefix match.
func matchPattern(path, pattern string) bool {
	switch {
	case strings.HasSuffix(pattern, "*"):
		return strings.HasPrefix(path, strings.TrimSuffix(pattern, "*"))
	case strings.HasPrefix(pattern, "*"):
		return strings.HasSuffix(path, strings.TrimPrefix(pattern, "*"))
	case strings.Contains(pattern, "*"):
		re, err := globToRegexp(pattern)
		if err != nil {
			return false
		}
		return re.MatchString(path)
	default:
		return strings.HasPrefix(path, pattern)
	}
}

func globToRegexp(pattern string) (*regexp.Regexp, error) {
	parts := strings.Split(pattern, "*")
	for i, p := range parts {
		parts[i] = regexp.QuoteMeta(p)
	}
	return regexp.Compile("^" + strings.Join(parts, ".*") + "$")
}
