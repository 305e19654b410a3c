// Package api provides HTTP handlers and the main API server logic for FixPipe.
//
// It exposes RESTful endpoints for starting troubleshooting sessions, feeding
// tenant messages into them, browsing the flow catalog, and reading deflection
// stats. The API integrates with the engine, store, messaging, and scheduler
// modules.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/Courtneyezra/FixPipe/internal/engine"
	"github.com/Courtneyezra/FixPipe/internal/genai"
	"github.com/Courtneyezra/FixPipe/internal/interpret"
	"github.com/Courtneyezra/FixPipe/internal/messaging"
	"github.com/Courtneyezra/FixPipe/internal/scheduler"
	"github.com/Courtneyezra/FixPipe/internal/store"
	"github.com/Courtneyezra/FixPipe/internal/twiliowhatsapp"
	"github.com/Courtneyezra/FixPipe/internal/whatsapp"
)

// Constants for API server configuration
const (
	// DefaultAddr is the default API server listen address
	DefaultAddr = ":8080"
	// DefaultShutdownTimeout bounds graceful HTTP shutdown
	DefaultShutdownTimeout = 10 * time.Second
)

// Opts holds configuration options for the API server.
type Opts struct {
	Addr           string
	SessionTimeout time.Duration
	SweepSchedule  string
}

// Option defines a configuration option for the API server.
type Option func(*Opts)

// WithAddr sets the API server listen address.
func WithAddr(addr string) Option {
	return func(o *Opts) { o.Addr = addr }
}

// WithSessionTimeout sets how long an active session may idle before the
// sweeper abandons it.
func WithSessionTimeout(d time.Duration) Option {
	return func(o *Opts) { o.SessionTimeout = d }
}

// WithSweepSchedule sets the cron expression for the stale-session sweep.
func WithSweepSchedule(expr string) Option {
	return func(o *Opts) { o.SweepSchedule = expr }
}

// Server wires the FixPipe modules behind the HTTP API.
type Server struct {
	addr           string
	st             store.Store
	triage         *messaging.Triage // nil when no transport is configured
	flowEngine     messaging.FlowEngine
	msgService     messaging.Service
	twilioService  *messaging.TwilioService
	sched          *scheduler.Scheduler
	sessionTimeout time.Duration
	sweepSchedule  string
}

// NewServer creates an API server over the given store and flow engine.
// msgService may be nil when the API is the only transport.
func NewServer(st store.Store, flowEngine messaging.FlowEngine, msgService messaging.Service, opts ...Option) *Server {
	cfg := Opts{
		Addr:           DefaultAddr,
		SessionTimeout: scheduler.DefaultSessionTimeout,
		SweepSchedule:  scheduler.DefaultSweepSchedule,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	s := &Server{
		addr:           cfg.Addr,
		st:             st,
		flowEngine:     flowEngine,
		msgService:     msgService,
		sessionTimeout: cfg.SessionTimeout,
		sweepSchedule:  cfg.SweepSchedule,
	}
	if ts, ok := msgService.(*messaging.TwilioService); ok {
		s.twilioService = ts
	}
	if msgService != nil {
		s.triage = messaging.NewTriage(msgService, flowEngine)
	}
	return s
}

// Handler builds the HTTP route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/sessions", s.sessionsHandler)
	mux.HandleFunc("/sessions/", s.sessionsHandler)
	mux.HandleFunc("/flows", s.flowsHandler)
	mux.HandleFunc("/flows/", s.flowsHandler)
	mux.HandleFunc("/stats/deflection", s.deflectionStatsHandler)
	mux.HandleFunc("/health", s.healthHandler)
	if s.twilioService != nil {
		mux.HandleFunc("/webhook/twilio", s.twilioService.TwilioWebhookHandler)
	}
	return mux
}

// Start launches the transport, the stale-session sweeper, and the HTTP
// listener. It blocks until the listener exits.
func (s *Server) Start(ctx context.Context) error {
	if s.msgService != nil {
		if err := s.msgService.Start(ctx); err != nil {
			return fmt.Errorf("failed to start messaging service: %w", err)
		}
		s.triage.Start(ctx)
		slog.Info("FixPipe chat transport running")
	}

	s.sched = scheduler.NewScheduler()
	if err := s.sched.AddSessionSweep(s.sweepSchedule, s.st, s.sessionTimeout); err != nil {
		return fmt.Errorf("failed to schedule session sweep: %w", err)
	}
	slog.Info("Stale-session sweep scheduled", "schedule", s.sweepSchedule, "idle_timeout", s.sessionTimeout)

	httpServer := &http.Server{Addr: s.addr, Handler: s.Handler()}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), DefaultShutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("HTTP server shutdown failed", "error", err)
		}
		s.sched.Stop()
		if s.msgService != nil {
			if err := s.msgService.Stop(); err != nil {
				slog.Error("Messaging service stop failed", "error", err)
			}
		}
	}()

	slog.Info("FixPipe API running", "addr", s.addr)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Run assembles every module from the given options and starts the service.
// It is the composition root used by the FixPipe binary.
func Run(waOpts []whatsapp.Option, storeOpts []store.Option, genaiOpts []genai.Option, apiOpts []Option) error {
	ctx := context.Background()

	st, err := store.NewStore(storeOpts...)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer st.Close()

	// The semantic tier is optional: without an OpenAI key the interpreter
	// runs pattern-only and unmatched replies resolve to clarification.
	var gaClient genai.ClientInterface
	if client, gaErr := genai.NewClient(genaiOpts...); gaErr != nil {
		slog.Warn("GenAI client unavailable, semantic classification disabled", "error", gaErr)
	} else {
		gaClient = client
	}
	interp := interpret.NewInterpreter(gaClient)

	eng := engine.NewEngine(st, st, st, interp)

	msgService, err := buildMessagingService(waOpts)
	if err != nil {
		return err
	}

	server := NewServer(st, eng, msgService, apiOpts...)
	return server.Start(ctx)
}

// buildMessagingService picks the chat transport: Twilio when credentials
// are present in the environment, otherwise the whatsmeow client. A missing
// transport is not fatal; the HTTP API still serves sessions.
func buildMessagingService(waOpts []whatsapp.Option) (messaging.Service, error) {
	if os.Getenv("TWILIO_ACCOUNT_SID") != "" {
		client, err := twiliowhatsapp.NewClient()
		if err != nil {
			return nil, fmt.Errorf("failed to create Twilio client: %w", err)
		}
		slog.Info("Using Twilio WhatsApp transport")
		return messaging.NewTwilioService(client), nil
	}

	client, err := whatsapp.NewClient(waOpts...)
	if err != nil {
		slog.Warn("WhatsApp client unavailable, running API-only", "error", err)
		return nil, nil
	}
	slog.Info("Using whatsmeow WhatsApp transport")
	return messaging.NewWhatsAppService(client), nil
}
