package checking

import (
	"encoding/json"
	"time"
	"validator-orchestrator/aiclient"
)

// QueryResult is a miner's raw submission as recorded by the caller. It is
// never mutated or persisted here; FormattedResponse is nil when the miner
// produced no usable output at all.
type QueryResult struct {
	FormattedResponse json.RawMessage `json:"formatted_response"`
	NodeID            *int64          `json:"node_id"`
	NodeHotkey        *string         `json:"node_hotkey"`
	ResponseTime      *float64        `json:"response_time"`
	StreamTime        *float64        `json:"stream_time"`
	Task              string          `json:"task"`
	StatusCode        *int            `json:"status_code"`
	Success           bool            `json:"success"`
	CreatedAt         time.Time       `json:"created_at"`
}

// ImageHashes holds one hex fingerprint per perceptual hash algorithm. Both
// sides of a comparison must have been produced by the same algorithm set.
type ImageHashes struct {
	AverageHash    string `json:"average_hash"`
	PerceptualHash string `json:"perceptual_hash"`
	DifferenceHash string `json:"difference_hash"`
	ColorHash      string `json:"color_hash"`
}

// ImageResponseBody is the decoded output of a miner or of the reference
// server. A record with all four fields absent is malformed.
type ImageResponseBody struct {
	ImageB64       *string      `json:"image_b64"`
	ClipEmbeddings [][]float64  `json:"clip_embeddings"`
	ImageHashes    *ImageHashes `json:"image_hashes"`
	IsNSFW         *bool        `json:"is_nsfw"`
}

func (b *ImageResponseBody) IsEmpty() bool {
	return b.ImageB64 == nil && b.ClipEmbeddings == nil && b.ImageHashes == nil && b.IsNSFW == nil
}

// MinerEmbedding returns the miner's self-reported embedding vector, nil if
// none was reported.
func (b *ImageResponseBody) MinerEmbedding() []float64 {
	if len(b.ClipEmbeddings) == 0 {
		return nil
	}
	return b.ClipEmbeddings[0]
}

// ModelConfig carries model-loading parameters, forwarded verbatim to the
// server lifecycle manager.
type ModelConfig struct {
	Model                string   `koanf:"model" json:"model"`
	Tokenizer            *string  `koanf:"tokenizer" json:"tokenizer,omitempty"`
	HalfPrecision        *bool    `koanf:"half_precision" json:"half_precision,omitempty"`
	Revision             *string  `koanf:"revision" json:"revision,omitempty"`
	GPUMemoryUtilization *float64 `koanf:"gpu_memory_utilization" json:"gpu_memory_utilization,omitempty"`
	MaxModelLen          *int     `koanf:"max_model_len" json:"max_model_len,omitempty"`
}

// TaskConfig is the static per-task descriptor. Loaded once at startup and
// read-only afterwards, keyed by task id in the dispatch registry.
type TaskConfig struct {
	Task             string              `koanf:"task" json:"task"`
	ServerNeeded     aiclient.ServerKind `koanf:"server_needed" json:"server_needed"`
	LoadModelConfig  *ModelConfig        `koanf:"load_model_config" json:"load_model_config,omitempty"`
	CheckingFunction string              `koanf:"checking_function" json:"checking_function"`
	Endpoint         string              `koanf:"endpoint" json:"endpoint"`
}

// Strategy identifiers accepted in TaskConfig.CheckingFunction.
const (
	CheckImageResult = "check_image_result"
	CheckTextResult  = "check_text_result"
)

// ScoringConfig holds the calibration constants of the scoring pipeline.
// The defaults come from the trained classifier's calibration; they are
// configuration, not code, because recalibrating the classifier moves them.
type ScoringConfig struct {
	// Image checking
	ForgerySimilarityFloor float64 `koanf:"forgery_similarity_floor"`
	GrossMismatchFloor     float64 `koanf:"gross_mismatch_floor"`
	PerfectScoreCutoff     float64 `koanf:"perfect_score_cutoff"`
	ProbabilityExponent    float64 `koanf:"probability_exponent"`
	ProbabilityWeight      float64 `koanf:"probability_weight"`
	SimilarityExponent     float64 `koanf:"similarity_exponent"`
	SimilarityWeight       float64 `koanf:"similarity_weight"`
	MidrangeSuppression    float64 `koanf:"midrange_suppression"`

	// Text checking
	TextAcceptanceFloor float64 `koanf:"text_acceptance_floor"`
}

func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		ForgerySimilarityFloor: 0.98,
		GrossMismatchFloor:     0.6,
		PerfectScoreCutoff:     0.95,
		ProbabilityExponent:    0.5,
		ProbabilityWeight:      0.4,
		SimilarityExponent:     2,
		SimilarityWeight:       0.6,
		MidrangeSuppression:    2,
		TextAcceptanceFloor:    0.99,
	}
}
