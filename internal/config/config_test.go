package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deskmates.dev/internal/scene"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestLoad_defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "deepseek-chat", cfg.Chat.Model)
	assert.Equal(t, 0.7, cfg.Chat.Temperature)
	assert.Equal(t, 1000, cfg.Chat.MaxTokens)
	assert.Equal(t, scene.DefaultTuning(), cfg.Scene.Tuning)
	assert.False(t, cfg.AuthEnabled())
}

func TestLoad_file(t *testing.T) {
	p := writeFile(t, "deskmates.yaml", `
server:
  addr: ":9000"
  shutdown_timeout: 3s
log:
  level: debug
  format: json
scene:
  tick_rate_hz: 30
  seed: 42
  tuning:
    agents: 6
    cooldown: 0
    trigger: proximity
chat:
  model: deepseek-reasoner
auth:
  url: https://example.supabase.co
  anon_key: anon
`)

	cfg, err := Load(p)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, 3*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 30, cfg.Scene.TickRate)
	assert.Equal(t, uint64(42), cfg.Scene.Seed)
	assert.Equal(t, 6, cfg.Scene.Tuning.Agents)
	assert.Equal(t, 0, cfg.Scene.Tuning.Cooldown)
	assert.Equal(t, scene.TriggerProximity, cfg.Scene.Tuning.Trigger)
	assert.Equal(t, 50, cfg.Scene.Tuning.SitMin, "unset tuning keeps its default")
	assert.Equal(t, "deepseek-reasoner", cfg.Chat.Model)
	assert.Equal(t, 1000, cfg.Chat.MaxTokens)
	assert.True(t, cfg.AuthEnabled())
}

func TestLoad_unknownField(t *testing.T) {
	p := writeFile(t, "deskmates.yaml", "server:\n  adress: \":9000\"\n")
	_, err := Load(p)
	assert.Error(t, err)
}

func TestLoad_missingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoad_sample(t *testing.T) {
	t.Setenv("DEEPSEEK_API_KEY", "")
	cfg, err := Load(filepath.Join("..", "..", "configs", "deskmates.yaml"))
	require.NoError(t, err)

	want := Default()
	assert.Equal(t, want.Scene, cfg.Scene)
	assert.Equal(t, want.Chat, cfg.Chat)
	assert.Equal(t, want.Session.MaxAge, cfg.Session.MaxAge)
}

func TestLoad_envOverrides(t *testing.T) {
	t.Setenv("SERVER_ADDR", ":7070")
	t.Setenv("DEEPSEEK_API_KEY", "sk-test")
	t.Setenv("SUPABASE_URL", "https://proj.supabase.co")
	t.Setenv("SUPABASE_ANON_KEY", "anon-key")
	t.Setenv("SESSION_SECRET", "0123456789abcdef0123")
	t.Setenv("DATABASE_PATH", "/tmp/users.db")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":7070", cfg.Server.Addr)
	assert.Equal(t, "sk-test", cfg.Chat.APIKey)
	assert.Equal(t, "https://proj.supabase.co", cfg.Auth.URL)
	assert.Equal(t, "anon-key", cfg.Auth.AnonKey)
	assert.Equal(t, "0123456789abcdef0123", cfg.Session.Secret)
	assert.Equal(t, "/tmp/users.db", cfg.Database.Path)
}

func TestValidate(t *testing.T) {
	for _, tc := range []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"no addr", func(c *Config) { c.Server.Addr = "" }, "server.addr is required"},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
		{"zero tick rate", func(c *Config) { c.Scene.TickRate = 0 }, "scene.tick_rate_hz"},
		{"bad tuning", func(c *Config) { c.Scene.Tuning.SitMin = 0 }, "scene.tuning"},
		{"no model", func(c *Config) { c.Chat.Model = "" }, "chat.model is required"},
		{"hot temperature", func(c *Config) { c.Chat.Temperature = 3 }, "chat.temperature"},
		{"auth without key", func(c *Config) { c.Auth.URL = "https://x.supabase.co" }, "auth.anon_key"},
		{"short secret", func(c *Config) { c.Session.Secret = "short" }, "session.secret"},
		{"no database", func(c *Config) { c.Database.Path = "" }, "database.path"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			assert.ErrorContains(t, cfg.Validate(), tc.errMsg)
		})
	}

	assert.NoError(t, Default().Validate())
}

func TestValidate_reportsEveryProblem(t *testing.T) {
	cfg := Default()
	cfg.Server.Addr = ""
	cfg.Chat.Model = ""

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.addr")
	assert.Contains(t, err.Error(), "chat.model")
}

func TestLayout_roundTrip(t *testing.T) {
	data, err := MarshalLayout(scene.DefaultLayout())
	require.NoError(t, err)

	l, err := ParseLayout(data)
	require.NoError(t, err)
	assert.Equal(t, scene.DefaultLayout(), l)
}

func TestLoadLayout(t *testing.T) {
	l, err := LoadLayout("")
	require.NoError(t, err)
	assert.Equal(t, scene.DefaultLayout(), l)

	p := writeFile(t, "office.yaml", `
width: 800
height: 600
agent_width: 32
agent_height: 50
obstacles:
  - {x: 0, y: 0, width: 800, height: 20}
groups:
  - name: row
    trigger: {dx: 0, dy: -10, dw: 0, dh: 10}
    desks:
      - {x: 100, y: 100, width: 80, height: 60}
      - {x: 300, y: 100, width: 80, height: 60}
`)
	l, err = LoadLayout(p)
	require.NoError(t, err)
	assert.Equal(t, 800.0, l.Width)
	require.Len(t, l.Groups, 1)
	assert.Len(t, l.Seats(), 2)
	assert.Equal(t, scene.Rect{X: 300, Y: 90, W: 80, H: 70}, l.Groups[0].TriggerRect(1))
}

func TestParseLayout_rejects(t *testing.T) {
	for _, tc := range []struct {
		name string
		doc  string
	}{
		{"missing width", "height: 10\nagent_width: 1\nagent_height: 1\nobstacles: []\ngroups: []\n"},
		{"negative obstacle", "width: 10\nheight: 10\nagent_width: 1\nagent_height: 1\nobstacles: [{x: 0, y: 0, width: -1, height: 1}]\ngroups: []\n"},
		{"unknown key", "width: 10\nheight: 10\nagent_width: 1\nagent_height: 1\nobstacles: []\ngroups: []\ndoors: []\n"},
		{"empty group", "width: 10\nheight: 10\nagent_width: 1\nagent_height: 1\nobstacles: []\ngroups: [{name: a, trigger: {}, desks: []}]\n"},
		{"agent too big", "width: 10\nheight: 10\nagent_width: 20\nagent_height: 1\nobstacles: []\ngroups: []\n"},
		{"not yaml", "width: [\n"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseLayout([]byte(tc.doc))
			assert.Error(t, err)
		})
	}
}
