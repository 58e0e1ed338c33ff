package servermanager

import (
	"context"
	"sync"
	"validator-orchestrator/aiclient"
	"validator-orchestrator/checking"
)

// MockServerManager is a mock implementation of the lifecycle manager for testing
type MockServerManager struct {
	Mu sync.Mutex

	// Error injection
	EnsureServerError error
	LoadModelError    error

	// Call tracking
	EnsureServerCalled int
	LoadModelCalled    int

	// Capture parameters
	LastServerKind  aiclient.ServerKind
	LastModelConfig *checking.ModelConfig
}

func NewMockServerManager() *MockServerManager {
	return &MockServerManager{}
}

func (m *MockServerManager) EnsureServerRunning(ctx context.Context, kind aiclient.ServerKind) error {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	m.EnsureServerCalled++
	m.LastServerKind = kind
	return m.EnsureServerError
}

func (m *MockServerManager) LoadModel(ctx context.Context, config checking.ModelConfig) error {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	m.LoadModelCalled++
	m.LastModelConfig = &config
	return m.LoadModelError
}

var _ checking.ServerLifecycle = (*MockServerManager)(nil)
