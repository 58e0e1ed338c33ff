package checking

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"validator-orchestrator/aiclient"
	"validator-orchestrator/logging"
)

// TextResponseBody is the decoded output of a miner or of the reference LLM
// server: chat-completion choices with per-token logprobs.
type TextResponseBody struct {
	Choices []TextChoice `json:"choices"`
}

type TextChoice struct {
	Message  *TextMessage    `json:"message,omitempty"`
	Logprobs *LogprobContent `json:"logprobs,omitempty"`
}

type TextMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type LogprobContent struct {
	Content []Logprob `json:"content"`
}

type Logprob struct {
	Token       string       `json:"token"`
	Logprob     float64      `json:"logprob"`
	TopLogprobs []TopLogprob `json:"top_logprobs"`
}

type TopLogprob struct {
	Token   string  `json:"token"`
	Logprob float64 `json:"logprob"`
}

func (b *TextResponseBody) ExtractLogits() []Logprob {
	var logits []Logprob
	for _, c := range b.Choices {
		if c.Logprobs != nil {
			logits = append(logits, c.Logprobs.Content...)
		}
	}
	return logits
}

func (b *TextResponseBody) EnforcedStr() (string, error) {
	if len(b.Choices) == 0 || b.Choices[0].Message == nil {
		return "", fmt.Errorf("response has no message content")
	}
	return b.Choices[0].Message.Content, nil
}

// TextStrategy re-runs the miner's prompt on the trusted LLM server with the
// miner's own text enforced, then compares the two logprob sequences token
// by token.
type TextStrategy struct {
	client  aiclient.ModelServerClient
	scoring ScoringConfig
}

func NewTextStrategy(client aiclient.ModelServerClient, scoring ScoringConfig) *TextStrategy {
	return &TextStrategy{client: client, scoring: scoring}
}

func (s *TextStrategy) CheckResult(ctx context.Context, result QueryResult, payload json.RawMessage, cfg TaskConfig) (Verdict, error) {
	if result.FormattedResponse == nil {
		_, valiStatus := s.client.QueryWithStatus(ctx, cfg.ServerNeeded, cfg.Endpoint, payload)
		logging.Info("Comparing failure outcomes", logging.Checking,
			"task", cfg.Task, "minerStatus", result.StatusCode, "valiStatus", valiStatus)
		if statusDigitsAgree(result.StatusCode, valiStatus) {
			return Scored{Value: 1, Reason: ReasonFailureAgreement}, nil
		}
		return Scored{Value: -1, Reason: ReasonFailureMismatch}, nil
	}

	var body TextResponseBody
	if err := json.Unmarshal(result.FormattedResponse, &body); err != nil {
		logging.Error("Undecodable miner response", logging.Checking, "task", cfg.Task, "error", err)
		return Scored{Value: 0, Reason: ReasonMalformedResponse}, nil
	}
	minerLogits := body.ExtractLogits()
	enforcedStr, err := body.EnforcedStr()
	if err != nil || len(minerLogits) == 0 {
		logging.Error("Miner response has no scorable content", logging.Checking, "task", cfg.Task, "error", err)
		return Scored{Value: 0, Reason: ReasonMalformedResponse}, nil
	}

	referencePayload, err := enforcedPayload(payload, enforcedStr)
	if err != nil {
		logging.Error("Failed to build reference payload", logging.Checking, "task", cfg.Task, "error", err)
		return Scored{Value: 0, Reason: ReasonMalformedResponse}, nil
	}

	raw, status := s.client.QueryWithStatus(ctx, cfg.ServerNeeded, cfg.Endpoint, referencePayload)
	if raw == nil {
		logging.Error("Reference query failed, check is indeterminate", logging.Checking, "task", cfg.Task, "status", status)
		return Indeterminate{Reason: ReasonReferenceUnavailable}, nil
	}
	var reference TextResponseBody
	if err := json.Unmarshal(raw, &reference); err != nil {
		logging.Error("Undecodable reference response", logging.Checking, "task", cfg.Task, "error", err)
		return Indeterminate{Reason: ReasonReferenceUnavailable}, nil
	}
	referenceLogits := reference.ExtractLogits()
	if len(referenceLogits) == 0 {
		logging.Error("Reference has no logprobs, check is indeterminate", logging.Checking, "task", cfg.Task)
		return Indeterminate{Reason: ReasonReferenceUnavailable}, nil
	}

	return s.compareLogits(minerLogits, referenceLogits), nil
}

// enforcedPayload rebuilds the original request with the miner's text
// enforced and streaming disabled, so the reference run reproduces the exact
// token sequence the miner claims to have generated.
func enforcedPayload(payload json.RawMessage, enforcedStr string) (map[string]interface{}, error) {
	var requestMap map[string]interface{}
	if err := json.Unmarshal(payload, &requestMap); err != nil {
		return nil, err
	}
	requestMap["enforced_str"] = enforcedStr
	requestMap["stream"] = false
	return requestMap, nil
}

func (s *TextStrategy) compareLogits(minerLogits, referenceLogits []Logprob) Verdict {
	if len(minerLogits) != len(referenceLogits) {
		logging.Info("Logprob sequences differ in length", logging.Checking,
			"miner", len(minerLogits), "reference", len(referenceLogits))
		return Scored{Value: -1, Reason: ReasonTokenMismatch}
	}
	for i := range minerLogits {
		if minerLogits[i].Token != referenceLogits[i].Token {
			return Scored{Value: -1, Reason: ReasonTokenMismatch}
		}
	}

	similarity := logprobSimilarity(minerLogits, referenceLogits)
	if similarity >= s.scoring.TextAcceptanceFloor {
		return Scored{Value: 1, Reason: ReasonSimilarity}
	}
	return Scored{Value: similarity, Reason: ReasonSimilarity}
}

func logprobSimilarity(minerLogits, referenceLogits []Logprob) float64 {
	distance, err := logprobDistance(minerLogits, referenceLogits)
	if err != nil {
		logging.Error("Error calculating logprob distance", logging.Checking, "error", err)
		return 0
	}
	similarity := 1 - distance
	if similarity < 0 {
		return 0
	}
	return similarity
}

func logprobDistance(minerLogits, referenceLogits []Logprob) (float64, error) {
	distance := 0.0
	for i := range minerLogits {
		posDistance, err := positionDistance(referenceLogits[i].TopLogprobs, minerLogits[i].TopLogprobs)
		if err != nil {
			return math.Inf(1), err
		}
		distance += posDistance
	}
	totalLogprobs := len(minerLogits) * len(minerLogits[0].TopLogprobs)
	if totalLogprobs == 0 {
		return math.Inf(1), fmt.Errorf("no top logprobs to compare")
	}

	return distance / float64(totalLogprobs), nil
}

func positionDistance(referenceLogprobs, minerLogprobs []TopLogprob) (float64, error) {
	if len(referenceLogprobs) == 0 || len(minerLogprobs) == 0 {
		return 0.0, fmt.Errorf("empty logprobs provided")
	}
	distance := 0.0

	referenceLogprobMap := make(map[string]float64)
	for _, o := range referenceLogprobs {
		referenceLogprobMap[o.Token] = o.Logprob
	}
	sortedLogprobs := make([]float64, 0, len(referenceLogprobMap))
	for _, logprob := range referenceLogprobMap {
		sortedLogprobs = append(sortedLogprobs, logprob)
	}

	sort.Float64s(sortedLogprobs)

	var minReferenceLogprob1, minReferenceLogprob2 float64
	if len(sortedLogprobs) >= 2 {
		minReferenceLogprob1 = sortedLogprobs[0]
		minReferenceLogprob2 = sortedLogprobs[1]
	} else if len(sortedLogprobs) == 1 {
		minReferenceLogprob1 = sortedLogprobs[0]
		minReferenceLogprob2 = minReferenceLogprob1 - 100.0
	}

	// Estimate the logprob a token just outside the reference top-k would have
	nextReferenceLogprob := minReferenceLogprob1 - (minReferenceLogprob2 - minReferenceLogprob1)

	for _, v := range minerLogprobs {
		var referenceLogprob float64
		if refProb, exists := referenceLogprobMap[v.Token]; exists {
			referenceLogprob = refProb
		} else {
			referenceLogprob = nextReferenceLogprob
		}

		denom := 1e-6 + math.Abs(v.Logprob) + math.Abs(referenceLogprob)
		distance += math.Abs(v.Logprob-referenceLogprob) / denom / 2.0
	}

	return distance, nil
}

var _ Strategy = (*TextStrategy)(nil)
