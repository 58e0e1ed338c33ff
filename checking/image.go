package checking

import (
	"context"
	"encoding/json"
	"math"
	"validator-orchestrator/aiclient"
	"validator-orchestrator/classifier"
	"validator-orchestrator/logging"
)

// ImageStrategy scores a miner's image result against a reference computed
// on the trusted image server.
type ImageStrategy struct {
	client  aiclient.ModelServerClient
	model   classifier.SameImageClassifier
	scoring ScoringConfig
}

func NewImageStrategy(client aiclient.ModelServerClient, model classifier.SameImageClassifier, scoring ScoringConfig) *ImageStrategy {
	return &ImageStrategy{
		client:  client,
		model:   model,
		scoring: scoring,
	}
}

func (s *ImageStrategy) CheckResult(ctx context.Context, result QueryResult, payload json.RawMessage, cfg TaskConfig) (Verdict, error) {
	// A miner that reported a failure is checked against the validator's own
	// transport outcome for the same request. Failing exactly when the
	// validator fails is correct behavior, not a fault.
	if result.FormattedResponse == nil {
		_, valiStatus := s.client.QueryWithStatus(ctx, cfg.ServerNeeded, cfg.Endpoint, payload)
		logging.Info("Comparing failure outcomes", logging.Checking,
			"task", cfg.Task, "minerStatus", result.StatusCode, "valiStatus", valiStatus)
		if statusDigitsAgree(result.StatusCode, valiStatus) {
			return Scored{Value: 1, Reason: ReasonFailureAgreement}, nil
		}
		return Scored{Value: -1, Reason: ReasonFailureMismatch}, nil
	}

	var body ImageResponseBody
	if err := json.Unmarshal(result.FormattedResponse, &body); err != nil {
		logging.Error("Undecodable miner response", logging.Checking, "task", cfg.Task, "error", err)
		return Scored{Value: 0, Reason: ReasonMalformedResponse}, nil
	}
	if body.IsEmpty() {
		logging.Error("Miner response has no usable fields", logging.Checking, "task", cfg.Task)
		return Scored{Value: 0, Reason: ReasonMalformedResponse}, nil
	}

	expected, ok := s.queryReference(ctx, cfg, payload)
	if !ok || len(expected.ClipEmbeddings) == 0 {
		logging.Error("Reference has no embeddings, check is indeterminate", logging.Checking, "task", cfg.Task)
		return Indeterminate{Reason: ReasonReferenceUnavailable}, nil
	}

	switch s.crossCheckNSFW(ctx, cfg, &body) {
	case nsfwDisagree:
		return Scored{Value: -2, Reason: ReasonSafetyMismatch}, nil
	case nsfwInconclusive:
		logging.Warn("NSFW check inconclusive, falling through to similarity", logging.Checking, "task", cfg.Task)
	}

	return s.imageSimilarity(ctx, &body, expected)
}

func (s *ImageStrategy) queryReference(ctx context.Context, cfg TaskConfig, payload json.RawMessage) (*ImageResponseBody, bool) {
	raw, status := s.client.QueryWithStatus(ctx, cfg.ServerNeeded, cfg.Endpoint, payload)
	if raw == nil {
		logging.Error("Reference query failed", logging.Checking, "task", cfg.Task, "status", status)
		return nil, false
	}
	var expected ImageResponseBody
	if err := json.Unmarshal(raw, &expected); err != nil {
		logging.Error("Undecodable reference response", logging.Checking, "task", cfg.Task, "error", err)
		return nil, false
	}
	return &expected, true
}

type nsfwOutcome int

const (
	nsfwAgree nsfwOutcome = iota
	nsfwDisagree
	nsfwInconclusive
)

// crossCheckNSFW asks the trusted server to classify the miner's own image
// and compares with the miner's self-reported flag. The check only condemns
// when the independent flag is true and the miner claimed otherwise; an
// unverifiable image is an explicit inconclusive outcome.
func (s *ImageStrategy) crossCheckNSFW(ctx context.Context, cfg TaskConfig, body *ImageResponseBody) nsfwOutcome {
	if body.ImageB64 == nil {
		return nsfwInconclusive
	}
	independent, err := s.client.CheckNSFW(ctx, cfg.ServerNeeded, *body.ImageB64)
	if err != nil {
		logging.Error("Failed to query NSFW endpoint", logging.Checking, "task", cfg.Task, "error", err)
		return nsfwInconclusive
	}
	if independent && (body.IsNSFW == nil || !*body.IsNSFW) {
		return nsfwDisagree
	}
	return nsfwAgree
}

func (s *ImageStrategy) imageSimilarity(ctx context.Context, body, expected *ImageResponseBody) (Verdict, error) {
	// Anti-forgery: the miner's self-reported embedding must match an
	// embedding the validator computes from the miner's own image. Any
	// failure to verify fails closed. NSFW ground truth is exempt because
	// the reference server refuses to re-embed such images.
	if expected.IsNSFW == nil || !*expected.IsNSFW {
		if !s.embeddingMatchesImage(ctx, body) {
			return Scored{Value: 0, Reason: ReasonForgeryDetected}, nil
		}
	}

	similarity, err := EmbeddingSimilarity(body.MinerEmbedding(), expected.ClipEmbeddings[0])
	if err != nil {
		logging.Error("Miner embedding incomparable with reference", logging.Checking, "error", err)
		return Scored{Value: 0, Reason: ReasonMalformedResponse}, nil
	}

	features, err := HashDistances(body.ImageHashes, expected.ImageHashes)
	if err != nil {
		logging.Error("Miner hashes incomparable with reference", logging.Checking, "error", err)
		return Scored{Value: 0, Reason: ReasonMalformedResponse}, nil
	}

	probabilitySame, err := s.model.PredictProbability(features)
	if err != nil {
		return nil, err
	}

	if similarity < s.scoring.GrossMismatchFloor {
		logging.Info("Gross mismatch with reference image", logging.Checking, "similarity", similarity)
		return Scored{Value: -10, Reason: ReasonGrossMismatch}, nil
	}

	combined := math.Pow(probabilitySame, s.scoring.ProbabilityExponent)*s.scoring.ProbabilityWeight +
		math.Pow(similarity, s.scoring.SimilarityExponent)*s.scoring.SimilarityWeight
	if combined > s.scoring.PerfectScoreCutoff {
		return Scored{Value: 1, Reason: ReasonSimilarity}, nil
	}
	return Scored{Value: math.Pow(combined, s.scoring.MidrangeSuppression), Reason: ReasonSimilarity}, nil
}

func (s *ImageStrategy) embeddingMatchesImage(ctx context.Context, body *ImageResponseBody) bool {
	if body.ImageB64 == nil {
		return false
	}
	embeddings, err := s.client.ClipEmbeddings(ctx, aiclient.ImageServer, []string{*body.ImageB64})
	if err != nil || len(embeddings) == 0 {
		logging.Error("Failed to re-embed miner image", logging.Checking, "error", err)
		return false
	}
	internal, err := EmbeddingSimilarity(embeddings[0], body.MinerEmbedding())
	if err != nil {
		logging.Error("Miner embedding incomparable with re-embedding", logging.Checking, "error", err)
		return false
	}
	if internal < s.scoring.ForgerySimilarityFloor {
		logging.Info("Self-reported embedding does not match miner image", logging.Checking, "similarity", internal)
		return false
	}
	return true
}

func statusDigitsAgree(minerStatus *int, valiStatus int) bool {
	if minerStatus == nil {
		return false
	}
	return leadingDigit(*minerStatus) == leadingDigit(valiStatus)
}

func leadingDigit(status int) int {
	if status <= 0 {
		return 0
	}
	for status >= 10 {
		status /= 10
	}
	return status
}

var _ Strategy = (*ImageStrategy)(nil)
