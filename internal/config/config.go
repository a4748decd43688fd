package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultTimezone = "Asia/Kolkata"
	configPathEnv   = "BSE_API_CONFIG"
	portEnv         = "PORT"
	modeEnv         = "BSE_API_MODE"
	logLevelEnv     = "BSE_API_LOG_LEVEL"
	maxPagesEnv     = "BSE_API_MAX_PAGES"
)

// Facade modes. "range" serves caller-supplied date windows; "today" forces the
// current IST date as both ends of the window.
const (
	ModeRange = "range"
	ModeToday = "today"
)

const (
	defaultMaxPages    = 3
	defaultMaxPagesCap = 30
	todayMaxPages      = 6
	todayMaxPagesCap   = 50
	defaultRowCap      = 200
)

// Config holds all settings required across the application.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Upstream UpstreamConfig `yaml:"upstream"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig describes the HTTP facade.
type ServerConfig struct {
	Addr            string         `yaml:"addr"`
	Mode            string         `yaml:"mode"`
	Timezone        string         `yaml:"timezone"`
	MaxPagesDefault int            `yaml:"maxPagesDefault"`
	MaxPagesCap     int            `yaml:"maxPagesCap"`
	RowCap          int            `yaml:"rowCap"`
	location        *time.Location `yaml:"-"`
}

// Location resolves the server timezone string to a time.Location.
func (s ServerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	tz := s.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return time.UTC
	}
	return loc
}

// UpstreamConfig carries the exchange endpoints and browser-session knobs that
// the fetcher is configured with.
type UpstreamConfig struct {
	AnnouncementsPage string        `yaml:"announcementsPage"`
	Endpoints         []string      `yaml:"endpoints"`
	WarmAssets        []string      `yaml:"warmAssets"`
	SiteRoot          string        `yaml:"siteRoot"`
	DetailBaseURL     string        `yaml:"detailBaseUrl"`
	AttachLiveURL     string        `yaml:"attachLiveUrl"`
	AttachHisURL      string        `yaml:"attachHisUrl"`
	UserAgent         string        `yaml:"userAgent"`
	PageSize          int           `yaml:"pageSize"`
	MaxPages          int           `yaml:"maxPages"`
	PageDelay         time.Duration `yaml:"pageDelay"`
	WarmTimeout       time.Duration `yaml:"warmTimeout"`
	AssetTimeout      time.Duration `yaml:"assetTimeout"`
	RequestTimeout    time.Duration `yaml:"requestTimeout"`
}

// LogConfig controls logger verbosity.
type LogConfig struct {
	Level string `yaml:"level"`
}

// Load reads .env and YAML configuration (if present) and applies environment
// overrides.
func Load() Config {
	// Best-effort: a missing .env file is the normal case outside local dev.
	_ = godotenv.Load()

	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	cfg.applyModeDefaults()
	cfg.bindTimezone()

	return cfg
}

// applyModeDefaults bumps the page bounds for today-only deployments when the
// file/env left them at the range-mode defaults.
func (c *Config) applyModeDefaults() {
	if c.Server.Mode != ModeToday {
		return
	}
	if c.Server.MaxPagesDefault == defaultMaxPages {
		c.Server.MaxPagesDefault = todayMaxPages
	}
	if c.Server.MaxPagesCap == defaultMaxPagesCap {
		c.Server.MaxPagesCap = todayMaxPagesCap
	}
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(portEnv); v != "" {
		c.Server.Addr = ":" + v
	}

	if v := os.Getenv(modeEnv); v != "" {
		c.Server.Mode = v
	}

	if v := os.Getenv(logLevelEnv); v != "" {
		c.Log.Level = v
	}

	if v := os.Getenv(maxPagesEnv); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Server.MaxPagesDefault = n
		}
	}
}

func (c *Config) bindTimezone() {
	tz := c.Server.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("config: unknown timezone %s, reverting to UTC", tz)
		loc = time.UTC
	}
	c.Server.location = loc
}

func mergeConfig(base, override Config) Config {
	if override.Server.Addr != "" {
		base.Server.Addr = override.Server.Addr
	}
	if override.Server.Mode != "" {
		base.Server.Mode = override.Server.Mode
	}
	if override.Server.Timezone != "" {
		base.Server.Timezone = override.Server.Timezone
	}
	if override.Server.MaxPagesDefault > 0 {
		base.Server.MaxPagesDefault = override.Server.MaxPagesDefault
	}
	if override.Server.MaxPagesCap > 0 {
		base.Server.MaxPagesCap = override.Server.MaxPagesCap
	}
	if override.Server.RowCap > 0 {
		base.Server.RowCap = override.Server.RowCap
	}

	if override.Upstream.AnnouncementsPage != "" {
		base.Upstream.AnnouncementsPage = override.Upstream.AnnouncementsPage
	}
	if len(override.Upstream.Endpoints) > 0 {
		base.Upstream.Endpoints = override.Upstream.Endpoints
	}
	if len(override.Upstream.WarmAssets) > 0 {
		base.Upstream.WarmAssets = override.Upstream.WarmAssets
	}
	if override.Upstream.SiteRoot != "" {
		base.Upstream.SiteRoot = override.Upstream.SiteRoot
	}
	if override.Upstream.DetailBaseURL != "" {
		base.Upstream.DetailBaseURL = override.Upstream.DetailBaseURL
	}
	if override.Upstream.AttachLiveURL != "" {
		base.Upstream.AttachLiveURL = override.Upstream.AttachLiveURL
	}
	if override.Upstream.AttachHisURL != "" {
		base.Upstream.AttachHisURL = override.Upstream.AttachHisURL
	}
	if override.Upstream.UserAgent != "" {
		base.Upstream.UserAgent = override.Upstream.UserAgent
	}
	if override.Upstream.PageSize > 0 {
		base.Upstream.PageSize = override.Upstream.PageSize
	}
	if override.Upstream.MaxPages > 0 {
		base.Upstream.MaxPages = override.Upstream.MaxPages
	}
	if override.Upstream.PageDelay > 0 {
		base.Upstream.PageDelay = override.Upstream.PageDelay
	}
	if override.Upstream.WarmTimeout > 0 {
		base.Upstream.WarmTimeout = override.Upstream.WarmTimeout
	}
	if override.Upstream.AssetTimeout > 0 {
		base.Upstream.AssetTimeout = override.Upstream.AssetTimeout
	}
	if override.Upstream.RequestTimeout > 0 {
		base.Upstream.RequestTimeout = override.Upstream.RequestTimeout
	}

	if override.Log.Level != "" {
		base.Log.Level = override.Log.Level
	}

	return base
}

func defaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Addr:            ":8080",
			Mode:            ModeRange,
			Timezone:        defaultTimezone,
			MaxPagesDefault: defaultMaxPages,
			MaxPagesCap:     defaultMaxPagesCap,
			RowCap:          defaultRowCap,
		},
		Upstream: UpstreamConfig{
			AnnouncementsPage: "https://www.bseindia.com/corporates/ann.html",
			Endpoints: []string{
				"https://api.bseindia.com/BseIndiaAPI/api/Ann/w",
				"https://api.bseindia.com/BseIndiaAPI/api/AnnGetData/w",
			},
			WarmAssets: []string{
				"https://www.bseindia.com/include/css/bootstrap.min.css",
				"https://www.bseindia.com/include/js/jquery-1.11.3.min.js",
			},
			SiteRoot:      "https://www.bseindia.com/",
			DetailBaseURL: "https://m.bseindia.com/MAnnDet.aspx",
			AttachLiveURL: "https://www.bseindia.com/xml-data/corpfiling/AttachLive/",
			AttachHisURL:  "https://www.bseindia.com/xml-data/corpfiling/AttachHis/",
			UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
				"AppleWebKit/537.36 (KHTML, like Gecko) " +
				"Chrome/120.0.0.0 Safari/537.36",
			PageSize:       20,
			MaxPages:       30,
			PageDelay:      250 * time.Millisecond,
			WarmTimeout:    15 * time.Second,
			AssetTimeout:   10 * time.Second,
			RequestTimeout: 25 * time.Second,
		},
		Log: LogConfig{Level: "info"},
	}
}
