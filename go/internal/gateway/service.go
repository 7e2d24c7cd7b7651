package gateway

import (
	"context"
	"net/http"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/rankboard/go/internal/events"
)

// Service serves dashboard displays over WebSocket and accepts operator commands
type Service struct {
	connectionManager *ConnectionManager
	wsHandler         *WebSocketHandler
	windowHandler     *WindowHandler
	sink              *events.Sink
}

// Config holds configuration for the gateway service
type Config struct {
	ConnectionConfig ConnectionConfig
	Clock            clockwork.Clock
}

// DefaultConfig returns default configuration for the gateway
func DefaultConfig() Config {
	return Config{
		ConnectionConfig: DefaultConnectionConfig(),
	}
}

// NewService creates a new gateway service
func NewService(config Config, controller WindowController) *Service {
	connectionManager := NewConnectionManager(config.ConnectionConfig)
	return &Service{
		connectionManager: connectionManager,
		wsHandler:         NewWebSocketHandler(connectionManager, controller),
		windowHandler:     NewWindowHandler(controller),
		sink:              events.NewSink(connectionManager, config.Clock),
	}
}

// Start broadcasts until ctx is cancelled
func (s *Service) Start(ctx context.Context) {
	log.Info().Msg("starting dashboard gateway")
	s.connectionManager.Start(ctx)
	log.Info().Msg("dashboard gateway stopped")
}

// Sink returns the dashboard sink that feeds connected displays
func (s *Service) Sink() *events.Sink {
	return s.sink
}

// RegisterRoutes registers the WebSocket and operator HTTP routes
func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	s.wsHandler.RegisterRoutes(mux)
	s.windowHandler.RegisterRoutes(mux)
	log.Info().Msg("dashboard gateway routes registered")
}

// GetStats returns statistics about the gateway service
func (s *Service) GetStats() ConnectionStats {
	return s.connectionManager.GetConnectionStats()
}
