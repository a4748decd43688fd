package bse

import (
	"bytes"
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const probeTimeout = 12 * time.Second

// ProbeConnectivity shows how the exchange responds to this environment: the
// warm-up request's status and cookies, and a sample of the announcements
// page. Nothing here is fatal; failed steps carry an error string instead.
func (c *Client) ProbeConnectivity(ctx context.Context) ProbeReport {
	httpc := c.newSession()
	var report ProbeReport

	report.Warmup = c.probeWarmup(ctx, httpc)
	report.Page = c.probePage(ctx, httpc)

	return report
}

func (c *Client) probeWarmup(ctx context.Context, httpc *http.Client) ProbeStep {
	resp, err := c.probeGet(ctx, httpc, c.cfg.SiteRoot)
	if err != nil {
		return ProbeStep{Error: err.Error()}
	}
	defer resp.Body.Close()

	step := ProbeStep{
		Status:    resp.StatusCode,
		SetCookie: resp.Header.Get("Set-Cookie") != "",
		URL:       resp.Request.URL.String(),
	}
	if u, err := url.Parse(c.cfg.SiteRoot); err == nil && httpc.Jar != nil {
		for _, cookie := range httpc.Jar.Cookies(u) {
			step.CookiesAfter = append(step.CookiesAfter, cookie.Name)
		}
	}
	return step
}

func (c *Client) probePage(ctx context.Context, httpc *http.Client) ProbeStep {
	resp, err := c.probeGet(ctx, httpc, c.cfg.AnnouncementsPage)
	if err != nil {
		return ProbeStep{Error: err.Error()}
	}
	defer resp.Body.Close()

	step := ProbeStep{
		Status: resp.StatusCode,
		URL:    resp.Request.URL.String(),
	}

	body, err := decodeBody(resp)
	if err != nil {
		step.Error = err.Error()
		return step
	}
	step.Length = len(body)
	step.Sample = sample(string(body), 500)

	if doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body)); err == nil {
		step.Title = strings.TrimSpace(doc.Find("title").First().Text())
	}

	return step
}

func (c *Client) probeGet(ctx context.Context, httpc *http.Client, u string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	c.applyBrowserHeaders(req)

	// Share the warm-up jar but bound each probe request on its own.
	probeClient := &http.Client{Jar: httpc.Jar, Timeout: probeTimeout}
	return probeClient.Do(req)
}
