package bse

import (
	"fmt"
	"strings"

	"github.com/gocolly/colly/v2"
)

const detailBodyLimit = 4000

// FetchDetail scrapes the detail page of one announcement: page title, the
// readable text, and any attachment links found.
func (c *Client) FetchDetail(newsID, scripCode string) (Detail, error) {
	newsID = strings.TrimSpace(newsID)
	scripCode = strings.TrimSpace(scripCode)
	if newsID == "" || scripCode == "" {
		return Detail{}, fmt.Errorf("news id and scrip code are required")
	}

	detail := Detail{NewsID: newsID, ScripCode: scripCode}

	col := colly.NewCollector(
		colly.UserAgent(c.cfg.UserAgent),
		colly.MaxDepth(1),
	)
	col.SetRequestTimeout(c.cfg.RequestTimeout)

	col.OnRequest(func(r *colly.Request) {
		r.Headers.Set("Accept-Language", "en-US,en;q=0.9")
		r.Headers.Set("Referer", c.cfg.AnnouncementsPage)
	})

	col.OnHTML("title", func(e *colly.HTMLElement) {
		if detail.Title == "" {
			detail.Title = strings.TrimSpace(e.Text)
		}
	})

	col.OnHTML("a[href]", func(e *colly.HTMLElement) {
		href := e.Request.AbsoluteURL(e.Attr("href"))
		if !strings.HasSuffix(strings.ToLower(href), ".pdf") {
			return
		}
		for _, seen := range detail.PDFLinks {
			if seen == href {
				return
			}
		}
		detail.PDFLinks = append(detail.PDFLinks, href)
	})

	col.OnHTML("body", func(e *colly.HTMLElement) {
		text := strings.Join(strings.Fields(e.Text), " ")
		if len(text) > detailBodyLimit {
			text = text[:detailBodyLimit]
		}
		detail.Body = text
	})

	var fetchErr error
	col.OnError(func(r *colly.Response, err error) {
		fetchErr = fmt.Errorf("detail page fetch failed: %w", err)
	})

	if err := col.Visit(c.makeDetailURL(newsID, scripCode)); err != nil {
		return detail, fmt.Errorf("failed to visit detail page: %w", err)
	}
	col.Wait()

	if fetchErr != nil {
		return detail, fetchErr
	}
	return detail, nil
}
