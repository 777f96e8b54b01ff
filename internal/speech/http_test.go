package speech

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cwrk-planet/meeting-service/internal/domain"

	"github.com/stretchr/testify/require"
)

func TestHTTPAdapter_Transcribe(t *testing.T) {
	req := require.New(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req.Equal("Bearer secret", r.Header.Get("Authorization"))
		req.Equal("16000", r.URL.Query().Get("sample_rate"))
		req.Equal("LINEAR16", r.URL.Query().Get("encoding"))

		f, _, err := r.FormFile("file")
		req.NoError(err)
		audio, err := io.ReadAll(f)
		req.NoError(err)
		req.Equal([]byte{1, 2, 3}, audio)
		req.Equal("en-US", r.FormValue("language"))

		_ = json.NewEncoder(w).Encode(map[string]string{"text": "we have a blocker"})
	}))
	defer srv.Close()

	a := NewHTTPAdapter(HTTPConfig{TranscribeURL: srv.URL + "/stt", APIKey: "secret"})
	text, err := a.Transcribe(context.Background(), []byte{1, 2, 3}, TranscribeOptions{SampleRate: 16000, Encoding: "LINEAR16", Language: "en-US"})
	req.NoError(err)
	req.Equal("we have a blocker", text)
}

func TestHTTPAdapter_TranscribeFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/slow" {
			time.Sleep(200 * time.Millisecond)
		}
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	tests := []struct {
		name string
		cfg  HTTPConfig
	}{
		{name: "upstream error", cfg: HTTPConfig{TranscribeURL: srv.URL}},
		{name: "timeout", cfg: HTTPConfig{TranscribeURL: srv.URL + "/slow", Timeout: 20 * time.Millisecond}},
		{name: "unreachable", cfg: HTTPConfig{TranscribeURL: "http://127.0.0.1:1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewHTTPAdapter(tt.cfg).Transcribe(context.Background(), []byte("x"), TranscribeOptions{})
			require.ErrorIs(t, err, domain.ErrTranscriptionUnavailable)
		})
	}
}

func TestHTTPAdapter_Synthesize(t *testing.T) {
	req := require.New(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body synthesisRequest
		req.NoError(json.NewDecoder(r.Body).Decode(&body))
		if body.Text == "" {
			http.Error(w, "empty", http.StatusBadRequest)
			return
		}
		req.Equal("alloy", body.Voice)
		_, _ = w.Write([]byte("RIFF"))
	}))
	defer srv.Close()

	a := NewHTTPAdapter(HTTPConfig{SynthesizeURL: srv.URL})
	audio, err := a.Synthesize(context.Background(), "Bob, you're up", SynthesizeOptions{Voice: "alloy"})
	req.NoError(err)
	req.Equal([]byte("RIFF"), audio)

	_, err = a.Synthesize(context.Background(), "", SynthesizeOptions{Voice: "alloy"})
	req.ErrorIs(err, domain.ErrSynthesisUnavailable)
}

func TestEchoAdapter(t *testing.T) {
	var a Adapter = EchoAdapter{}
	text, err := a.Transcribe(context.Background(), []byte("  a blocker \n"), TranscribeOptions{})
	require.NoError(t, err)
	require.Equal(t, "a blocker", text)

	_, err = a.Transcribe(context.Background(), []byte{0xff, 0xfe}, TranscribeOptions{})
	require.ErrorIs(t, err, domain.ErrTranscriptionUnavailable)

	audio, err := a.Synthesize(context.Background(), "hi", SynthesizeOptions{})
	require.NoError(t, err)
	require.Equal(t, []byte("hi"), audio)
}
