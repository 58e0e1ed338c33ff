package servermanager

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
	"validator-orchestrator/aiclient"
	"validator-orchestrator/checking"
	"validator-orchestrator/logging"
)

const (
	StartServerPath = "/start-server"
	LoadModelPath   = "/load-model"
)

// HttpServerManager drives the external lifecycle daemon over HTTP. The
// daemon owns the state of "which server and model is currently running";
// both operations may block for the duration of a container or model
// transition and are idempotent when the requested state is already in
// place. Transitions can take minutes while model weights load, hence the
// long client timeout.
type HttpServerManager struct {
	baseUrl string
	client  http.Client
}

func NewHttpServerManager(baseUrl string, timeout time.Duration) *HttpServerManager {
	return &HttpServerManager{
		baseUrl: baseUrl,
		client:  http.Client{Timeout: timeout},
	}
}

type startServerRequest struct {
	ServerKind aiclient.ServerKind `json:"server_kind"`
}

func (m *HttpServerManager) EnsureServerRunning(ctx context.Context, kind aiclient.ServerKind) error {
	logging.Info("Ensuring server is running", logging.ServerManager, "kind", kind)
	return m.post(ctx, StartServerPath, startServerRequest{ServerKind: kind})
}

func (m *HttpServerManager) LoadModel(ctx context.Context, config checking.ModelConfig) error {
	logging.Info("Loading model", logging.ServerManager, "model", config.Model)
	return m.post(ctx, LoadModelPath, config)
}

func (m *HttpServerManager) post(ctx context.Context, path string, payload any) error {
	requestUrl, err := url.JoinPath(m.baseUrl, path)
	if err != nil {
		return err
	}
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, requestUrl, bytes.NewReader(jsonData))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("lifecycle manager returned status %d for %s", resp.StatusCode, path)
	}
	return nil
}

var _ checking.ServerLifecycle = (*HttpServerManager)(nil)
