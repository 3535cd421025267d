// Package monitor periodically logs renderer queue depths and index size.
package monitor

import (
	"log/slog"
	"sync"
	"time"

	"github.com/mapgrid/usermarks/internal/worker"
)

// Dependencies holds all dependencies for the monitor service
type Dependencies struct {
	Log      *slog.Logger
	Renderer *worker.Renderer
	Interval time.Duration
}

// Service manages status monitoring
type Service struct {
	deps      Dependencies
	isRunning bool
	mu        sync.RWMutex
	stopChan  chan struct{}
}

// NewService creates a new monitor service
func NewService(deps Dependencies) *Service {
	if deps.Interval <= 0 {
		deps.Interval = 30 * time.Second
	}
	return &Service{
		deps:     deps,
		stopChan: make(chan struct{}),
	}
}

// IsRunning returns whether the status monitor is running
func (s *Service) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Start launches the periodic status loop. Calling Start twice is a no-op.
func (s *Service) Start() {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = true
	s.mu.Unlock()

	go s.loop()
}

// Stop halts the status loop.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.isRunning {
		return
	}
	s.isRunning = false
	close(s.stopChan)
}

func (s *Service) loop() {
	ticker := time.NewTicker(s.deps.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.deps.Log.Info("renderer status",
				"pendingCommands", s.deps.Renderer.PendingCommands(),
				"pendingTiles", s.deps.Renderer.PendingTiles(),
				"indexedTiles", s.deps.Renderer.IndexedTiles(),
			)
		}
	}
}
