package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cwrk-planet/meeting-service/config"
	"github.com/cwrk-planet/meeting-service/internal/broadcast"
	"github.com/cwrk-planet/meeting-service/internal/engine"
	"github.com/cwrk-planet/meeting-service/internal/postgres"
	"github.com/cwrk-planet/meeting-service/internal/rules"
	"github.com/cwrk-planet/meeting-service/internal/service"
	"github.com/cwrk-planet/meeting-service/internal/session"
	"github.com/cwrk-planet/meeting-service/internal/speech"
	grpcx "github.com/cwrk-planet/meeting-service/internal/transport/grpc"
	httpx "github.com/cwrk-planet/meeting-service/internal/transport/http"
	mcpx "github.com/cwrk-planet/meeting-service/internal/transport/mcp"
	"github.com/cwrk-planet/meeting-service/internal/transport/ws"
	"github.com/cwrk-planet/meeting-service/pkg/logger"

	"github.com/joho/godotenv"
	"google.golang.org/grpc"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	// --- config ---
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	var level slog.Level
	if cfg.Logging.Level != "" {
		if err := level.UnmarshalText([]byte(cfg.Logging.Level)); err != nil {
			log.Fatalf("logging.level: %v", err)
		}
	}
	logger.Init(logger.Config{
		Env:       logger.ParseEnv(cfg.Logging.Env),
		Service:   cfg.Logging.Service,
		Version:   cfg.Logging.Version,
		Backend:   logger.Backend(cfg.Logging.Backend),
		Level:     level,
		AddSource: cfg.Logging.AddSource,
		Debug:     cfg.Logging.Debug,
	})
	slog.Info("starting meeting-service",
		"env", cfg.Logging.Env, "version", cfg.Logging.Version)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// --- session & rules ---
	sess, err := session.New(session.Options{
		Participants: cfg.Meeting.Participants,
		Agenda:       cfg.Meeting.Agenda,
		Elements:     cfg.Meeting.Elements,
	})
	if err != nil {
		log.Fatalf("session: %v", err)
	}
	table, err := rules.NewTable(cfg.Rules)
	if err != nil {
		log.Fatalf("rules: %v", err)
	}

	// --- broadcast ---
	hub := broadcast.NewHub(broadcast.Config{
		SendTimeout: cfg.Broadcast.SendTimeout,
		Buffer:      cfg.Broadcast.Buffer,
		QueueSize:   cfg.Broadcast.QueueSize,
	}, logger.Component("broadcast"))
	go hub.Run(ctx)

	// --- postgres journal (optional) ---
	var (
		journal       engine.Journal
		journalReader httpx.JournalReader
		journalDone   = make(chan struct{})
	)
	if cfg.Postgres.DSN != "" {
		pool, err := postgres.NewPool(ctx, postgres.Config{
			DSN:             cfg.Postgres.DSN,
			MaxConns:        cfg.Postgres.MaxConns,
			ApplicationName: cfg.Logging.Service,
			LogQueries:      cfg.Postgres.LogQueries,
			Logger:          logger.Component("postgres"),
		})
		if err != nil {
			log.Fatalf("postgres: %v", err)
		}
		defer pool.Close()

		j := postgres.NewJournal(pool, cfg.Postgres.JournalBuffer, logger.Component("journal"))
		if err := j.EnsureSchema(ctx); err != nil {
			log.Fatalf("postgres schema: %v", err)
		}
		go func() {
			defer close(journalDone)
			j.Run(ctx)
		}()
		journal, journalReader = j, j
	} else {
		close(journalDone)
		slog.Info("transition journal disabled")
	}

	eng := engine.New(engine.Deps{
		Session:   sess,
		Rules:     table,
		Publisher: hub,
		Journal:   journal,
		Logger:    logger.Component("engine"),
	})

	// --- speech ---
	var adapter speech.Adapter = speech.EchoAdapter{}
	if cfg.Speech.Adapter == "http" {
		adapter = speech.NewHTTPAdapter(speech.HTTPConfig{
			TranscribeURL: cfg.Speech.TranscribeURL,
			SynthesizeURL: cfg.Speech.SynthesizeURL,
			APIKey:        cfg.Speech.APIKey,
			Timeout:       cfg.Speech.Timeout,
		})
	}

	// --- services ---
	meetingSvc := service.NewMeetingService(eng, hub, adapter, logger.Component("meeting"))
	meetingSvc.SetSpeechDefaults(
		speech.TranscribeOptions{
			SampleRate: cfg.Speech.SampleRate,
			Encoding:   cfg.Speech.Encoding,
			Language:   cfg.Speech.Language,
		},
		speech.SynthesizeOptions{
			Voice:    cfg.Speech.Voice,
			Format:   cfg.Speech.Format,
			Language: cfg.Speech.Language,
		},
	)
	boardSvc := service.NewWhiteboardService(eng)

	// --- WS & MCP ---
	wsServer := ws.NewServer(meetingSvc, logger.Component("ws"))
	wsServer.SetPingInterval(cfg.HTTP.PingInterval)

	var mcpHandler http.Handler
	if cfg.MCP.Enabled {
		mcpHandler = mcpx.NewServer(meetingSvc, boardSvc, cfg.Logging.Version).Handler()
	}

	// --- HTTP ---
	handler := httpx.NewHandler(meetingSvc, boardSvc, journalReader)
	handler.SetMaxAudioBytes(cfg.HTTP.MaxAudioBytes)
	router := httpx.NewRouter(httpx.Deps{
		Handler:        handler,
		WS:             http.HandlerFunc(wsServer.HandleWS),
		MCP:            mcpHandler,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		RequestTimeout: cfg.HTTP.RequestTimeout,
	})
	httpSrv := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	// --- gRPC ---
	var grpcServer *grpc.Server
	if cfg.GRPC.Addr != "" {
		grpcLog := logger.Component("grpc")
		grpcServer = grpc.NewServer(
			grpc.ChainUnaryInterceptor(grpcx.UnaryServerInterceptor(grpcLog, cfg.GRPC.Timeout)),
			grpc.ChainStreamInterceptor(grpcx.StreamServerInterceptor(grpcLog)),
		)
		grpcx.Register(grpcServer, grpcx.NewServer(meetingSvc, grpcLog))
	}

	// --- run servers ---
	errCh := make(chan error, 2)

	go func() {
		slog.Info("http listen", "addr", cfg.HTTP.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	if grpcServer != nil {
		go func() {
			lis, err := net.Listen("tcp", cfg.GRPC.Addr)
			if err != nil {
				errCh <- err
				return
			}
			slog.Info("grpc listen", "addr", cfg.GRPC.Addr)
			if err := grpcServer.Serve(lis); err != nil {
				errCh <- err
			}
		}()
	}

	// --- graceful shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		slog.Info("shutdown signal", "sig", sig)
	case err := <-errCh:
		slog.Error("server error", "err", err)
	}

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// subscribers see Done before their connections are torn down
	hub.Close()
	if grpcServer != nil {
		grpcServer.GracefulStop()
	}
	_ = httpSrv.Shutdown(ctxShutdown)

	stop()
	select {
	case <-journalDone:
	case <-ctxShutdown.Done():
		slog.Warn("journal flush timed out")
	}
	slog.Info("stopped")
}
