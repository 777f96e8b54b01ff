package http

import (
	"net/http"
	"time"

	httpmw "github.com/cwrk-planet/meeting-service/internal/transport/http/middleware"

	"github.com/go-chi/chi/v5"
	middlewareChi "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type Deps struct {
	Handler *Handler
	// WS and MCP hold long-lived connections and bypass the request timeout and access log.
	WS  http.Handler
	MCP http.Handler

	AllowedOrigins []string
	RequestTimeout time.Duration
}

func NewRouter(d Deps) http.Handler {
	if d.RequestTimeout <= 0 {
		d.RequestTimeout = 30 * time.Second
	}
	if len(d.AllowedOrigins) == 0 {
		d.AllowedOrigins = []string{"*"}
	}
	h := d.Handler

	r := chi.NewRouter()
	r.Use(httpmw.RequestID)
	r.Use(middlewareChi.RealIP)
	r.Use(middlewareChi.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: d.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID", "Mcp-Session-Id"},
		ExposedHeaders: []string{"X-Request-ID", "Mcp-Session-Id"},
		MaxAge:         300,
	}))

	if d.WS != nil {
		r.Method(http.MethodGet, "/ws/whiteboard", d.WS)
	}
	if d.MCP != nil {
		r.Handle("/mcp", d.MCP)
	}

	r.Group(func(pr chi.Router) {
		pr.Use(httpmw.Logging)
		pr.Use(middlewareChi.Timeout(d.RequestTimeout))

		pr.Route("/meeting", func(m chi.Router) {
			m.Get("/context", h.GetContext)
			m.Post("/start", h.StartMeeting)
			m.Post("/next", h.NextSpeaker)
			m.Post("/end", h.EndMeeting)
			m.Post("/speech", h.SubmitSpeech)
			m.Post("/transcript", h.SubmitTranscript)
			m.Post("/notes", h.AddNote)
			m.Get("/announce", h.Announce)
			m.Get("/journal", h.Journal)
		})

		pr.Route("/whiteboard", func(wb chi.Router) {
			wb.Get("/", h.GetBoard)
			wb.Put("/", h.ReplaceBoard)
			wb.Delete("/", h.ClearBoard)
			wb.Get("/search", h.Search)
			wb.Get("/stats", h.BoardStats)

			wb.Post("/elements", h.CreateElement)
			wb.Route("/elements/{id}", func(el chi.Router) {
				el.Get("/", h.GetElement)
				el.Patch("/", h.UpdateElement)
				el.Delete("/", h.DeleteElement)
			})

			wb.Post("/connections", h.Connect)
			wb.Delete("/connections", h.Disconnect)
		})

		pr.Get("/status", h.Status)
	})

	// health
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return r
}
