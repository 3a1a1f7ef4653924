package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
	_ "time/tzdata"

	"eamsgrab/internal/eams"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	err := os.WriteFile(path, []byte(content), 0600)
	require.NoError(t, err)
}

func TestLoadMergesLocalAndDefaults(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "config.json5"), `{
  // shared settings
  profile_id: "4665",
  courses: ["0", "2"],
  timing: { min_gap: "1.6s" },
}`)
	writeFile(t, filepath.Join(dir, "config.local.json5"), `{
  cookie: "JSESSIONID=abc",
}`)

	cfg, err := Load(filepath.Join(dir, "config.json5"))
	require.NoError(t, err)

	expected := Default()
	expected.ProfileId = "4665"
	expected.Cookie = "JSESSIONID=abc"
	expected.Courses = []string{"0", "2"}
	expected.Timing.MinGap = "1.6s"
	expected.CookieSource = filepath.Join(dir, "config.local.json5")
	if diff := cmp.Diff(expected, cfg); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "config.json5"))
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
	require.Equal(t, eams.DefaultBaseUrl, cfg.BaseUrl)
}

func TestPrecedence(t *testing.T) {
	cfg := Default()
	cfg.Cookie = "from-file"
	cfg.ProfileId = "1"

	env := map[string]string{EnvCookie: " from-env ", EnvProfileId: ""}
	cfg.ApplyEnv(func(key string) string { return env[key] })
	require.Equal(t, "from-env", cfg.Cookie)
	require.Equal(t, "$"+EnvCookie, cfg.CookieSource)
	require.Equal(t, "1", cfg.ProfileId)

	cfg.Apply(Overrides{Cookie: "from-flag", Courses: []string{"3"}})
	require.Equal(t, "from-flag", cfg.Cookie)
	require.Equal(t, "--cookie", cfg.CookieSource)
	require.Equal(t, "1", cfg.ProfileId)
	require.Equal(t, []string{"3"}, cfg.Courses)
}

func TestValidate(t *testing.T) {
	valid := Default()
	valid.ProfileId = "4665"
	valid.Cookie = "JSESSIONID=abc"
	require.NoError(t, valid.Validate())

	testCases := []struct {
		name   string
		mutate func(c *Config)
		err    error
	}{
		{"non digit profile", func(c *Config) { c.ProfileId = "46a5" }, ErrInvalidProfileID},
		{"empty profile", func(c *Config) { c.ProfileId = "" }, ErrInvalidProfileID},
		{"empty cookie", func(c *Config) { c.Cookie = "  " }, ErrMissingCookie},
		{"bad open time", func(c *Config) { c.OpenTime = "tomorrow" }, ErrInvalidOpenTime},
	}
	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			cfg := valid
			test.mutate(&cfg)
			require.ErrorIs(t, cfg.Validate(), test.err)
		})
	}

	bad := valid
	bad.Timing.Backoff = "soon"
	require.ErrorContains(t, bad.Validate(), "timing.backoff")
}

func TestParseOpenTime(t *testing.T) {
	cfg := Config{OpenTime: "2025-9-16 16:0:0", Timezone: "Asia/Shanghai"}
	open, err := cfg.ParseOpenTime()
	require.NoError(t, err)

	loc, err := time.LoadLocation("Asia/Shanghai")
	require.NoError(t, err)
	require.True(t, open.Equal(time.Date(2025, 9, 16, 16, 0, 0, 0, loc)))

	cfg.OpenTime = "2025-09-16 08:05:09"
	open, err = cfg.ParseOpenTime()
	require.NoError(t, err)
	require.Equal(t, 8, open.Hour())
	require.Equal(t, 5, open.Minute())

	cfg.OpenTime = "Now"
	open, err = cfg.ParseOpenTime()
	require.NoError(t, err)
	require.True(t, open.IsZero())

	for _, raw := range []string{"", "  ", "2025-13-01 10:00:00", "16:00:00"} {
		cfg.OpenTime = raw
		_, err = cfg.ParseOpenTime()
		require.ErrorIs(t, err, ErrInvalidOpenTime, raw)
	}
}

func TestParseTiming(t *testing.T) {
	timing, err := Default().ParseTiming()
	require.NoError(t, err)
	require.Equal(t, Timing{
		RequestTimeout: 5 * time.Second,
		MinGap:         800 * time.Millisecond,
		Backoff:        3 * time.Second,
		PassInterval:   700 * time.Millisecond,
	}, timing)
}

func TestNotifyEnabled(t *testing.T) {
	require.False(t, NotifyConfig{}.Enabled())
	require.True(t, NotifyConfig{Smtp: SmtpConfig{Server: "smtp.example.edu"}, To: []string{"me@example.edu"}}.Enabled())
}
