package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cwrk-planet/meeting-service/internal/domain"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	t.Setenv("CONFIG_PATH", path)
}

func TestLoadConfig_ShippedFile(t *testing.T) {
	req := require.New(t)
	t.Setenv("CONFIG_PATH", "config.yaml")

	cfg, err := LoadConfig()
	req.NoError(err)
	req.Equal(":8000", cfg.HTTP.Addr)
	req.Len(cfg.Meeting.Participants, 3)
	req.Equal("Carol", cfg.Meeting.Participants[2].Name)
	req.Equal([]string{"Opening", "Updates", "Blockers", "Summary"}, cfg.Meeting.Agenda)
	req.Equal(domain.KindSticky, cfg.Meeting.Elements[0].Kind)
	req.Len(cfg.Rules, 3)
	req.Equal(time.Second, cfg.Broadcast.SendTimeout)
}

func TestLoadConfig_DefaultsAndEnv(t *testing.T) {
	req := require.New(t)
	writeConfig(t, `
http:
  addr: ":8000"
meeting:
  participants:
    - { id: "1", name: Alice }
`)
	t.Setenv("MEETING_HTTP_ADDR", ":9999")
	t.Setenv("MEETING_CORS_ORIGINS", "https://a.example,https://b.example")

	cfg, err := LoadConfig()
	req.NoError(err)
	req.Equal(":9999", cfg.HTTP.Addr)
	req.Equal([]string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
	req.Equal("echo", cfg.Speech.Adapter)
	req.Equal("meeting-service", cfg.Logging.Service)
	req.Equal(30*time.Second, cfg.HTTP.RequestTimeout)
	req.Len(cfg.Rules, 3, "default rule table")
	req.Empty(cfg.GRPC.Addr)
}

func TestLoadConfig_Invalid(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{
			name: "no participants",
			body: "http: {addr: ':8000'}\n",
		},
		{
			name: "duplicate participant ids",
			body: "http: {addr: ':8000'}\nmeeting:\n  participants: [{id: '1', name: A}, {id: '1', name: B}]\n",
		},
		{
			name: "http speech adapter without urls",
			body: "http: {addr: ':8000'}\nmeeting:\n  participants: [{id: '1', name: A}]\nspeech: {adapter: http}\n",
		},
		{
			name: "rule without keyword",
			body: "http: {addr: ':8000'}\nmeeting:\n  participants: [{id: '1', name: A}]\nrules: [{name: x}]\n",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			writeConfig(t, tc.body)
			_, err := LoadConfig()
			require.Error(t, err)
		})
	}
}
