package main

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"bse-announcements/internal/bse"
	"bse-announcements/internal/config"
)

// Service handles announcement fetching operations behind the HTTP facade.
type Service struct {
	cfg    config.Config
	client *bse.Client
	logger *slog.Logger
}

// NewService creates a new service instance.
func NewService(cfg config.Config, client *bse.Client, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		cfg:    cfg,
		client: client,
		logger: logger,
	}
}

// GetAnnouncements fetches, deduplicates and returns announcements for the
// requested window. In today mode the window is forced to the current date in
// the exchange's timezone regardless of caller input.
func (s *Service) GetAnnouncements(c *gin.Context) {
	opts := bse.FetchOptions{
		Segment:        c.DefaultQuery("segment", "C"),
		SubmissionType: c.DefaultQuery("submission_type", "0"),
		Category:       c.Query("category"),
		Subcategory:    c.Query("subcategory"),
		Search:         c.Query("search"),
		MaxPages:       s.boundedMaxPages(c.Query("max_pages")),
	}

	today := ""
	if s.cfg.Server.Mode == config.ModeToday {
		today = s.todaySiteDate()
		opts.FromDate, opts.ToDate = today, today
	} else {
		opts.FromDate = c.Query("from_date")
		opts.ToDate = c.Query("to_date")
	}

	rows, err := s.client.Fetch(c.Request.Context(), opts)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "invalid request",
			Trace: err.Error(),
		})
		return
	}

	// Announcements can land with yesterday's date stamp around midnight;
	// when a strict "today" query finds nothing, widen the window one day
	// back with a couple of extra pages.
	if s.cfg.Server.Mode == config.ModeToday && len(rows) == 0 {
		widened := opts
		if d, perr := time.Parse(bse.SiteDateFormat, today); perr == nil {
			widened.FromDate = d.AddDate(0, 0, -1).Format(bse.SiteDateFormat)
		}
		widened.MaxPages = opts.MaxPages + 2
		s.logger.Debug("strict today query empty, widening window", "from", widened.FromDate, "to", widened.ToDate)
		if fallback, ferr := s.client.Fetch(c.Request.Context(), widened); ferr == nil {
			rows = fallback
		}
	}

	rows = bse.Dedupe(rows)
	count := len(rows)
	if len(rows) > s.cfg.Server.RowCap {
		rows = rows[:s.cfg.Server.RowCap]
	}

	resp := AnnouncementsResponse{
		Date:  today,
		Count: count,
		Rows:  rows,
	}

	if queryFlag(c, "diag") {
		diag := DiagInfo{
			Segment:        opts.Segment,
			SubmissionType: opts.SubmissionType,
			Category:       opts.Category,
			Subcategory:    opts.Subcategory,
			Search:         opts.Search,
			MaxPages:       opts.MaxPages,
		}
		if len(rows) > 0 {
			diag.FirstRow = &rows[0]
		}
		resp.Diag = &diag
	}

	if queryFlag(c, "probe") {
		report := s.client.ProbeConnectivity(c.Request.Context())
		resp.Probe = &report
	}

	c.JSON(http.StatusOK, resp)
}

// GetDetail scrapes the detail page of a single announcement.
func (s *Service) GetDetail(c *gin.Context) {
	newsID := c.Query("news_id")
	scripCode := c.Query("scrip")

	detail, err := s.client.FetchDetail(newsID, scripCode)
	if err != nil {
		if newsID == "" || scripCode == "" {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error: "invalid request",
				Trace: err.Error(),
			})
			return
		}
		c.JSON(http.StatusBadGateway, ErrorResponse{
			Error: "detail fetch failed",
			Trace: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, detail)
}

// Health returns a static ok flag with the current date in the exchange's
// timezone.
func (s *Service) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		OK:       true,
		TodayIST: s.todaySiteDate(),
	})
}

// EchoPath answers unknown paths with a debug echo, so misrouted deployments
// show what they were actually called with.
func (s *Service) EchoPath(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"debug":         "catch-all",
		"received_path": c.Request.URL.Path,
		"query":         c.Request.URL.Query(),
		"hint":          "use /healthz for health and /bse for data",
	})
}

func (s *Service) todaySiteDate() string {
	return time.Now().In(s.cfg.Server.Location()).Format(bse.SiteDateFormat)
}

// boundedMaxPages parses the max_pages parameter and clamps it to the
// deployment's bounds.
func (s *Service) boundedMaxPages(raw string) int {
	pages := s.cfg.Server.MaxPagesDefault
	if raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			pages = n
		}
	}
	if pages < 1 {
		pages = 1
	}
	if pages > s.cfg.Server.MaxPagesCap {
		pages = s.cfg.Server.MaxPagesCap
	}
	return pages
}

func queryFlag(c *gin.Context, name string) bool {
	v, err := strconv.ParseBool(c.DefaultQuery(name, "false"))
	return err == nil && v
}
