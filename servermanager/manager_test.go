package servermanager

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
	"validator-orchestrator/aiclient"
	"validator-orchestrator/checking"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureServerRunning_PostsServerKind(t *testing.T) {
	var receivedPath string
	var received startServerRequest
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		receivedPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	manager := NewHttpServerManager(ts.URL, 2*time.Second)
	err := manager.EnsureServerRunning(context.Background(), aiclient.ImageServer)
	require.NoError(t, err)
	assert.Equal(t, StartServerPath, receivedPath)
	assert.Equal(t, aiclient.ImageServer, received.ServerKind)
}

func TestLoadModel_PostsModelConfig(t *testing.T) {
	var received checking.ModelConfig
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, LoadModelPath, r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	maxModelLen := 8192
	manager := NewHttpServerManager(ts.URL, 2*time.Second)
	err := manager.LoadModel(context.Background(), checking.ModelConfig{
		Model:       "unsloth/Meta-Llama-3.1-8B-Instruct",
		MaxModelLen: &maxModelLen,
	})
	require.NoError(t, err)
	assert.Equal(t, "unsloth/Meta-Llama-3.1-8B-Instruct", received.Model)
	require.NotNil(t, received.MaxModelLen)
	assert.Equal(t, 8192, *received.MaxModelLen)
}

func TestEnsureServerRunning_ErrorStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "container failed", http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	manager := NewHttpServerManager(ts.URL, 2*time.Second)
	err := manager.EnsureServerRunning(context.Background(), aiclient.LLMServer)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestEnsureServerRunning_TransportFailure(t *testing.T) {
	manager := NewHttpServerManager("http://127.0.0.1:1", 100*time.Millisecond)
	err := manager.EnsureServerRunning(context.Background(), aiclient.LLMServer)
	require.Error(t, err)
}

func TestMockServerManager(t *testing.T) {
	mock := NewMockServerManager()
	require.NoError(t, mock.EnsureServerRunning(context.Background(), aiclient.ImageServer))
	require.NoError(t, mock.LoadModel(context.Background(), checking.ModelConfig{Model: "m"}))
	assert.Equal(t, 1, mock.EnsureServerCalled)
	assert.Equal(t, 1, mock.LoadModelCalled)
	assert.Equal(t, aiclient.ImageServer, mock.LastServerKind)
	assert.Equal(t, "m", mock.LastModelConfig.Model)

	mock.EnsureServerError = assert.AnError
	require.ErrorIs(t, mock.EnsureServerRunning(context.Background(), aiclient.LLMServer), assert.AnError)
}
