package bse

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"bse-announcements/internal/config"
)

// Client fetches announcement listings from the exchange. One Client is safe
// to share; each Fetch call creates its own browser session (cookie jar), so
// concurrent fetches do not coordinate beyond that.
type Client struct {
	cfg    config.UpstreamConfig
	logger *slog.Logger
}

// New creates a Client around the given upstream configuration.
func New(cfg config.UpstreamConfig, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{cfg: cfg, logger: logger}
}

// Fetch pulls announcements for the given window, paginating until a page
// comes back short or no endpoint/variant combination produces rows. The
// result preserves upstream order and is not deduplicated; callers dedupe
// with Dedupe.
func (c *Client) Fetch(ctx context.Context, opts FetchOptions) ([]Announcement, error) {
	now := time.Now().In(time.Local)

	from, err := NormalizeDate(opts.FromDate, now)
	if err != nil {
		return nil, err
	}
	to, err := NormalizeDate(opts.ToDate, now)
	if err != nil {
		return nil, err
	}

	maxPages := opts.MaxPages
	if maxPages <= 0 {
		maxPages = c.cfg.MaxPages
	}

	logger := c.logger.With("fetch_id", uuid.NewString())
	logger.Info("fetching announcements", "from", from, "to", to, "max_pages", maxPages)

	httpc := c.newSession()
	c.warmSession(ctx, httpc, logger)

	pace := rate.Inf
	if c.cfg.PageDelay > 0 {
		pace = rate.Every(c.cfg.PageDelay)
	}
	limiter := rate.NewLimiter(pace, 1)

	var all []Announcement
	for page := 1; page <= maxPages; page++ {
		if err := limiter.Wait(ctx); err != nil {
			return all, err
		}

		raw := c.fetchPage(ctx, httpc, logger, page, from, to, opts)
		if len(raw) == 0 {
			// Upstream has no more data or is blocking us.
			logger.Debug("no variant produced rows", "page", page)
			break
		}

		for _, r := range raw {
			all = append(all, c.normalizeRow(r))
		}

		// A short page is the last page of results.
		if len(raw) < c.cfg.PageSize {
			break
		}
	}

	logger.Info("fetch complete", "rows", len(all))

	return all, nil
}

// fetchPage tries every endpoint and parameter variant for one page and
// returns the rows of the first combination that yields any.
func (c *Client) fetchPage(ctx context.Context, httpc *http.Client, logger *slog.Logger, page int, from, to string, opts FetchOptions) []map[string]any {
	variants := paramVariants(opts.Segment, opts.SubmissionType, from, to, page, opts.Search, opts.Category, opts.Subcategory)

	for _, endpoint := range c.cfg.Endpoints {
		for i, params := range variants {
			logger.Debug("trying variant", "page", page, "endpoint", endpoint, "variant", i)

			payload, ok := c.tryRequest(ctx, httpc, logger, endpoint, params)
			if !ok {
				continue
			}

			rows := extractRows(payload)
			logger.Debug("variant result", "page", page, "endpoint", endpoint, "variant", i, "rows", len(rows))
			if len(rows) > 0 {
				return rows
			}
		}
	}

	return nil
}

// tryRequest attempts a GET then a form-encoded POST for one endpoint and
// parameter set. Failures (network, non-2xx, non-JSON body) are expected
// while guessing at the upstream contract, so they are logged and absorbed
// rather than returned.
func (c *Client) tryRequest(ctx context.Context, httpc *http.Client, logger *slog.Logger, endpoint string, params url.Values) (map[string]any, bool) {
	withBuster := cloneValues(params)
	withBuster.Set("_", cacheBuster())
	encoded := withBuster.Encode()

	if payload, ok := c.attempt(ctx, httpc, logger, http.MethodGet, endpoint+"?"+encoded, ""); ok {
		return payload, true
	}
	return c.attempt(ctx, httpc, logger, http.MethodPost, endpoint, encoded)
}

func (c *Client) attempt(ctx context.Context, httpc *http.Client, logger *slog.Logger, method, u, form string) (map[string]any, bool) {
	reqCtx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout)
	defer cancel()

	var body io.Reader
	if form != "" {
		body = strings.NewReader(form)
	}

	req, err := http.NewRequestWithContext(reqCtx, method, u, body)
	if err != nil {
		logger.Debug("build request failed", "method", method, "error", err)
		return nil, false
	}
	c.applyBrowserHeaders(req)
	if method == http.MethodPost {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded; charset=UTF-8")
	}

	resp, err := httpc.Do(req)
	if err != nil {
		logger.Debug("request failed", "method", method, "url", u, "error", err)
		return nil, false
	}
	defer resp.Body.Close()

	logger.Debug("upstream response", "method", method, "url", u, "status", resp.StatusCode)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, false
	}

	raw, err := decodeBody(resp)
	if err != nil {
		logger.Debug("read body failed", "method", method, "error", err)
		return nil, false
	}

	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		logger.Debug("non-JSON body", "method", method, "sample", sample(string(raw), 300))
		return nil, false
	}
	return payload, true
}

// newSession creates an HTTP client with a fresh cookie jar. Timeouts are
// applied per request so warm-up and data calls can differ.
func (c *Client) newSession() *http.Client {
	jar, _ := cookiejar.New(nil)
	return &http.Client{Jar: jar}
}

// warmSession fetches the announcements page and a couple of static assets so
// the WAF/anti-bot layer sets session cookies. Failures are best-effort and
// ignored.
func (c *Client) warmSession(ctx context.Context, httpc *http.Client, logger *slog.Logger) {
	c.warmGet(ctx, httpc, logger, c.cfg.AnnouncementsPage, c.cfg.WarmTimeout)
	for _, u := range c.cfg.WarmAssets {
		c.warmGet(ctx, httpc, logger, u, c.cfg.AssetTimeout)
	}
}

func (c *Client) warmGet(ctx context.Context, httpc *http.Client, logger *slog.Logger, u string, timeout time.Duration) {
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, u, nil)
	if err != nil {
		return
	}
	c.applyBrowserHeaders(req)

	resp, err := httpc.Do(req)
	if err != nil {
		logger.Debug("warm-up failed", "url", u, "error", err)
		return
	}
	defer resp.Body.Close()

	logger.Debug("warm-up", "url", u, "status", resp.StatusCode)
}

// applyBrowserHeaders marks the request as coming from a browser session on
// the announcements page. The upstream rejects plain API clients.
func (c *Client) applyBrowserHeaders(req *http.Request) {
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("Accept", "application/json, text/javascript, */*; q=0.01")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Accept-Encoding", "gzip, deflate, br")
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Pragma", "no-cache")
	req.Header.Set("Referer", c.cfg.AnnouncementsPage)
	req.Header.Set("Origin", strings.TrimSuffix(c.cfg.SiteRoot, "/"))
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	req.Header.Set("Connection", "keep-alive")
}

// paramVariants builds the ordered parameter dictionaries to try. The
// variants differ only in which field name encodes the submission type:
// deployments of the upstream have flipped between them.
func paramVariants(segment, subm, from, to string, page int, search, category, subcategory string) []url.Values {
	if segment == "" {
		segment = "C"
	}
	if category == "" {
		category = "-1"
	}

	base := url.Values{}
	base.Set("strCat", category)
	base.Set("strSubCat", subcategory)
	base.Set("strType", segment)
	base.Set("strFromDate", from)
	base.Set("strToDate", to)
	base.Set("strSearch", search)
	base.Set("strScrip", "")
	base.Set("pageno", strconv.Itoa(page))

	v1 := cloneValues(base)
	v1.Set("strIsXBRL", subm)

	v2 := cloneValues(base)
	v2.Set("strAnnSubmitType", subm)

	// Some deployments honor strPrevDate; harmless if empty.
	v3 := cloneValues(base)
	v3.Set("strIsXBRL", subm)
	v3.Set("strPrevDate", "")

	return []url.Values{v1, v2, v3}
}

func cloneValues(v url.Values) url.Values {
	out := make(url.Values, len(v))
	for k, vals := range v {
		out[k] = append([]string(nil), vals...)
	}
	return out
}

// cacheBuster produces the "_" value browsers append to dodge caches.
func cacheBuster() string {
	return strconv.FormatInt(time.Now().UnixMilli(), 10) + strconv.Itoa(100+rand.Intn(900))
}

func sample(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
