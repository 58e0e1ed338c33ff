package aiclient

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"validator-orchestrator/logging"
)

// MockClient is a mock implementation of ModelServerClient for testing
type MockClient struct {
	Mu sync.Mutex

	// Canned responses
	QueryResponse  json.RawMessage
	QueryStatus    int
	NSFWResult     bool
	ClipResult     [][]float64
	QueryResponses []QueryScript // consumed in order when non-empty

	// Error injection
	NSFWError error
	ClipError error

	// Call tracking
	QueryCalled int
	NSFWCalled  int
	ClipCalled  int

	// Capture parameters
	LastQueryKind     ServerKind
	LastQueryEndpoint string
	LastQueryPayload  any
	LastNSFWImage     string
	LastClipImages    []string
}

// QueryScript is one scripted QueryWithStatus reply, used when a test needs
// different replies across sequential calls within a single check.
type QueryScript struct {
	Body   json.RawMessage
	Status int
}

// NewMockClient creates a new mock client that answers every query with 200
// and an empty JSON object.
func NewMockClient() *MockClient {
	return &MockClient{
		QueryResponse: json.RawMessage(`{}`),
		QueryStatus:   http.StatusOK,
	}
}

func (m *MockClient) QueryWithStatus(ctx context.Context, kind ServerKind, endpoint string, payload any) (json.RawMessage, int) {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	logging.Debug("MockClient. QueryWithStatus: called", logging.Testing, "kind", kind, "endpoint", endpoint)
	m.QueryCalled++
	m.LastQueryKind = kind
	m.LastQueryEndpoint = endpoint
	m.LastQueryPayload = payload

	if len(m.QueryResponses) > 0 {
		next := m.QueryResponses[0]
		m.QueryResponses = m.QueryResponses[1:]
		return next.Body, next.Status
	}
	return m.QueryResponse, m.QueryStatus
}

func (m *MockClient) CheckNSFW(ctx context.Context, kind ServerKind, imageB64 string) (bool, error) {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	m.NSFWCalled++
	m.LastNSFWImage = imageB64
	if m.NSFWError != nil {
		return false, m.NSFWError
	}
	return m.NSFWResult, nil
}

func (m *MockClient) ClipEmbeddings(ctx context.Context, kind ServerKind, imageB64s []string) ([][]float64, error) {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	m.ClipCalled++
	m.LastClipImages = imageB64s
	if m.ClipError != nil {
		return nil, m.ClipError
	}
	return m.ClipResult, nil
}

var _ ModelServerClient = (*MockClient)(nil)
