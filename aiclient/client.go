package aiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"validator-orchestrator/logging"
)

const DefaultQueryTimeout = 120 * time.Second

// Client is the production ModelServerClient. Servers are addressed as
// http://<kind>:<port>, one well-known port for every model server.
type Client struct {
	port   int
	client http.Client
}

func NewClient(port int, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultQueryTimeout
	}
	return &Client{
		port:   port,
		client: http.Client{Timeout: timeout},
	}
}

func (c *Client) serverUrl(kind ServerKind, endpoint string) string {
	return fmt.Sprintf("http://%s:%d/%s", kind, c.port, strings.TrimPrefix(endpoint, "/"))
}

func (c *Client) postJson(ctx context.Context, url string, payload any) (*http.Response, error) {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.client.Do(req)
}

func (c *Client) QueryWithStatus(ctx context.Context, kind ServerKind, endpoint string, payload any) (json.RawMessage, int) {
	requestUrl := c.serverUrl(kind, endpoint)
	logging.Info("Querying model server", logging.AIClient, "url", requestUrl)

	resp, err := c.postJson(ctx, requestUrl, payload)
	if err != nil {
		logging.Error("Model server query failed", logging.AIClient, "url", requestUrl, "error", err)
		return nil, http.StatusInternalServerError
	}
	defer resp.Body.Close()

	logging.Info("Model server responded", logging.AIClient, "url", requestUrl, "status", resp.StatusCode)
	if resp.StatusCode >= 400 {
		return nil, resp.StatusCode
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		logging.Error("Failed to read model server response", logging.AIClient, "url", requestUrl, "error", err)
		return nil, http.StatusInternalServerError
	}
	return body, resp.StatusCode
}

func (c *Client) CheckNSFW(ctx context.Context, kind ServerKind, imageB64 string) (bool, error) {
	body, status := c.QueryWithStatus(ctx, kind, NSFWEndpoint, NSFWCheckRequest{Image: imageB64})
	if body == nil {
		return false, fmt.Errorf("nsfw check failed with status %d", status)
	}
	var response NSFWCheckResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return false, err
	}
	return response.IsNSFW, nil
}

func (c *Client) ClipEmbeddings(ctx context.Context, kind ServerKind, imageB64s []string) ([][]float64, error) {
	body, status := c.QueryWithStatus(ctx, kind, ClipEmbeddingsEndpoint, ClipEmbeddingsRequest{ImageB64s: imageB64s})
	if body == nil {
		return nil, fmt.Errorf("clip embeddings query failed with status %d", status)
	}
	var response ClipEmbeddingsResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, err
	}
	return response.ClipEmbeddings, nil
}
