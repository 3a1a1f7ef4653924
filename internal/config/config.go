// Package config holds the settings of an election run.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"eamsgrab/internal/components/configutil"
	"eamsgrab/internal/eams"

	"dario.cat/mergo"
)

const (
	EnvCookie    = "EAMS_COOKIE"
	EnvProfileId = "EAMS_PROFILE_ID"
)

// OpenTimeLayout accepts single digit month, day and clock fields.
const OpenTimeLayout = "2006-1-2 15:4:5"

// OpenNow is the open time of an election that is already running.
const OpenNow = "now"

var (
	ErrInvalidProfileID = errors.New("profile id must only contain digits")
	ErrInvalidOpenTime  = errors.New("open time must look like YYYY-MM-DD HH:MM:SS")
	ErrMissingCookie    = errors.New("cookie is empty")
)

type SmtpConfig struct {
	Server       string `json:"server"`
	Port         int    `json:"port"`
	EmailAddress string `json:"email_address"`
	Password     string `json:"password"`
}

type NotifyConfig struct {
	Smtp SmtpConfig `json:"smtp"`
	To   []string   `json:"to"`
}

// Enabled reports whether enough is configured to send mail.
func (n NotifyConfig) Enabled() bool {
	return n.Smtp.Server != "" && len(n.To) > 0
}

// TimingConfig holds durations in time.ParseDuration syntax.
type TimingConfig struct {
	RequestTimeout string `json:"request_timeout"`
	MinGap         string `json:"min_gap"`
	Backoff        string `json:"backoff"`
	PassInterval   string `json:"pass_interval"`
}

type Timing struct {
	RequestTimeout time.Duration
	MinGap         time.Duration
	Backoff        time.Duration
	PassInterval   time.Duration
}

type Config struct {
	BaseUrl   string `json:"base_url"`
	ProfileId string `json:"profile_id"`
	Cookie    string `json:"cookie"`
	// Courses are selection tokens, catalog indices or course ids.
	Courses []string `json:"courses"`
	// OpenTime is either OpenTimeLayout or OpenNow.
	OpenTime  string `json:"open_time"`
	Timezone  string `json:"timezone"`
	UserAgent string `json:"user_agent"`

	CloudflareBypass     bool    `json:"cloudflare_bypass"`
	MaxRequestsPerSecond float64 `json:"max_requests_per_second"`

	Timing TimingConfig `json:"timing"`
	Notify NotifyConfig `json:"notify"`

	// CookieSource names the file, variable or flag the cookie came from.
	CookieSource string `json:"-"`
}

func Default() Config {
	return Config{
		BaseUrl:   eams.DefaultBaseUrl,
		UserAgent: eams.DefaultUserAgent,
		Timing: TimingConfig{
			RequestTimeout: "5s",
			MinGap:         "800ms",
			Backoff:        "3s",
			PassInterval:   "700ms",
		},
	}
}

// Load reads `path` (and its .local sibling) and fills whatever is left
// unset with defaults. A missing file is not an error.
func Load(path string) (Config, error) {
	layers, err := configutil.ReadLayers[Config](path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, err
	}
	cfg, err := layers.Merge()
	if err != nil {
		return Config{}, err
	}
	cfg.CookieSource = layers.Source(func(c Config) bool {
		return strings.TrimSpace(c.Cookie) != ""
	})

	err = mergo.Merge(&cfg, Default())
	if err != nil {
		return Config{}, fmt.Errorf("apply defaults: %w", err)
	}
	return cfg, nil
}

// ApplyEnv overrides the cookie and profile id with non-empty environment
// variables.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := strings.TrimSpace(getenv(EnvCookie)); v != "" {
		c.Cookie = v
		c.CookieSource = "$" + EnvCookie
	}
	if v := strings.TrimSpace(getenv(EnvProfileId)); v != "" {
		c.ProfileId = v
	}
}

// Overrides are values given on the command line, empty ones are ignored.
type Overrides struct {
	ProfileId string
	Cookie    string
	Courses   []string
	OpenTime  string
}

func (c *Config) Apply(o Overrides) {
	if o.ProfileId != "" {
		c.ProfileId = o.ProfileId
	}
	if o.Cookie != "" {
		c.Cookie = o.Cookie
		c.CookieSource = "--cookie"
	}
	if len(o.Courses) > 0 {
		c.Courses = o.Courses
	}
	if o.OpenTime != "" {
		c.OpenTime = o.OpenTime
	}
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Validate checks the settings every command needs.
func (c Config) Validate() error {
	c.ProfileId = strings.TrimSpace(c.ProfileId)
	if !isDigits(c.ProfileId) {
		return fmt.Errorf("%w: %q", ErrInvalidProfileID, c.ProfileId)
	}
	if strings.TrimSpace(c.Cookie) == "" {
		return ErrMissingCookie
	}
	if strings.TrimSpace(c.OpenTime) != "" {
		_, err := c.ParseOpenTime()
		if err != nil {
			return err
		}
	}
	_, err := c.ParseTiming()
	return err
}

// Location is the time zone open times are read in.
func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// ParseOpenTime returns the zero time for OpenNow. An unset open time is an
// error like a malformed one.
func (c Config) ParseOpenTime() (time.Time, error) {
	raw := strings.TrimSpace(c.OpenTime)
	if raw == "" {
		return time.Time{}, fmt.Errorf("%w: open time is not set, use %q to start right away", ErrInvalidOpenTime, OpenNow)
	}
	if strings.EqualFold(raw, OpenNow) {
		return time.Time{}, nil
	}
	loc, err := c.Location()
	if err != nil {
		return time.Time{}, err
	}
	t, err := time.ParseInLocation(OpenTimeLayout, raw, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidOpenTime, raw)
	}
	return t, nil
}

func (c Config) ParseTiming() (Timing, error) {
	var out Timing
	fields := []struct {
		name  string
		raw   string
		value *time.Duration
	}{
		{"timing.request_timeout", c.Timing.RequestTimeout, &out.RequestTimeout},
		{"timing.min_gap", c.Timing.MinGap, &out.MinGap},
		{"timing.backoff", c.Timing.Backoff, &out.Backoff},
		{"timing.pass_interval", c.Timing.PassInterval, &out.PassInterval},
	}
	for _, f := range fields {
		d, err := time.ParseDuration(f.raw)
		if err != nil {
			return Timing{}, fmt.Errorf("%s: %w", f.name, err)
		}
		if d < 0 {
			return Timing{}, fmt.Errorf("%s: negative duration %s", f.name, d)
		}
		*f.value = d
	}
	return out, nil
}
