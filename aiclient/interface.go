package aiclient

import (
	"context"
	"encoding/json"
)

// ServerKind names the trusted model server a task needs. The value doubles
// as the server's hostname on the validator's internal network.
type ServerKind string

const (
	LLMServer   ServerKind = "llm_server"
	ImageServer ServerKind = "image_server"
)

const (
	NSFWEndpoint           = "/check-nsfw"
	ClipEmbeddingsEndpoint = "/clip-embeddings"
)

// ModelServerClient talks to the trusted local model servers that produce
// reference outputs. Transport failures are reported through status codes,
// not errors: scoring code must be able to treat "reference unavailable" as
// data, never as a reason to abort a check.
type ModelServerClient interface {
	// QueryWithStatus POSTs the payload to the given endpoint on the server
	// of the given kind. On transport failure or HTTP status >= 400 the body
	// is nil and the status carries the failure (500 for connection errors
	// and timeouts).
	QueryWithStatus(ctx context.Context, kind ServerKind, endpoint string, payload any) (json.RawMessage, int)

	// CheckNSFW asks the server for an independent safety classification of
	// an image. An error means the classification could not be obtained.
	CheckNSFW(ctx context.Context, kind ServerKind, imageB64 string) (bool, error)

	// ClipEmbeddings computes embeddings for the given base64 images.
	ClipEmbeddings(ctx context.Context, kind ServerKind, imageB64s []string) ([][]float64, error)
}

type NSFWCheckRequest struct {
	Image string `json:"image"`
}

type NSFWCheckResponse struct {
	IsNSFW bool `json:"is_nsfw"`
}

type ClipEmbeddingsRequest struct {
	ImageB64s []string `json:"image_b64s"`
}

type ClipEmbeddingsResponse struct {
	ClipEmbeddings [][]float64 `json:"clip_embeddings"`
}

// Ensure Client implements ModelServerClient
var _ ModelServerClient = (*Client)(nil)
