package services

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/nats-io/nats.go"

	"kvittera/internal/config"
	"kvittera/internal/events"
	"kvittera/internal/gateway/rest"
	"kvittera/internal/indexing"
	"kvittera/internal/realtime"
	"kvittera/internal/storage"
	storagemongo "kvittera/internal/storage/mongo"
)

// Options selects which services the process runs.
type Options struct {
	RunAPI      bool
	RunRealtime bool
}

// Manager wires storage, the sync engine and the exposed services, and owns
// their lifecycle.
type Manager struct {
	cfg  *config.Config
	opts Options

	provider storage.Provider
	natsConn *nats.Conn
	engine   *indexing.Engine

	restServer     *rest.Server
	realtimeServer *realtime.Server
	realtimeHTTP   *http.Server
}

func NewManager(cfg *config.Config, opts Options) *Manager {
	return &Manager{cfg: cfg, opts: opts}
}

// Engine exposes the sync engine, available after Init.
func (m *Manager) Engine() indexing.Service {
	return m.engine
}

// Init connects to the backing services and builds the engine.
func (m *Manager) Init(ctx context.Context) error {
	provider, err := storagemongo.NewProvider(ctx, m.cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	m.provider = provider

	var publishers events.MultiPublisher

	if m.cfg.Events.Enabled {
		nc, err := nats.Connect(m.cfg.Events.URL)
		if err != nil {
			return fmt.Errorf("failed to connect to NATS: %w", err)
		}
		m.natsConn = nc

		publisher, err := events.NewNATSPublisher(nc, m.cfg.Events.Stream)
		if err != nil {
			return fmt.Errorf("failed to create event publisher: %w", err)
		}
		publishers = append(publishers, publisher)
	}

	if m.opts.RunRealtime {
		m.realtimeServer = realtime.NewServer()
		publishers = append(publishers, m.realtimeServer.Hub())
	}

	var publisher events.Publisher
	switch len(publishers) {
	case 0:
		publisher = events.NoopPublisher{}
	case 1:
		publisher = publishers[0]
	default:
		publisher = publishers
	}

	m.engine = indexing.NewEngine(m.provider, publisher)

	if m.opts.RunAPI {
		m.restServer = rest.NewServer(m.cfg.Server.Listen, m.engine)
	}

	return nil
}

// Start launches the enabled services. Background work stops when ctx is
// cancelled.
func (m *Manager) Start(ctx context.Context) {
	if m.realtimeServer != nil {
		m.realtimeServer.Start(ctx)
		m.realtimeHTTP = &http.Server{
			Addr:              m.cfg.Server.RealtimeListen,
			Handler:           m.realtimeServer,
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			slog.Info("Realtime service listening", "addr", m.realtimeHTTP.Addr)
			if err := m.realtimeHTTP.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				slog.Error("Realtime server failed", "error", err)
			}
		}()
	}

	if m.restServer != nil {
		m.restServer.Start()
	}
}

// Shutdown stops services in reverse dependency order.
func (m *Manager) Shutdown(ctx context.Context) {
	if m.restServer != nil {
		if err := m.restServer.Shutdown(ctx); err != nil {
			slog.Warn("REST server shutdown failed", "error", err)
		}
	}
	if m.realtimeHTTP != nil {
		if err := m.realtimeHTTP.Shutdown(ctx); err != nil {
			slog.Warn("Realtime server shutdown failed", "error", err)
		}
	}
	if m.natsConn != nil {
		m.natsConn.Close()
	}
	if m.provider != nil {
		if err := m.provider.Close(ctx); err != nil {
			slog.Warn("Storage shutdown failed", "error", err)
		}
	}
}
