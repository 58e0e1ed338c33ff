package server

import (
	"encoding/json"
	"validator-orchestrator/checking"
)

type CheckResultRequest struct {
	Task    string               `json:"task"`
	Result  checking.QueryResult `json:"result"`
	Payload json.RawMessage      `json:"payload"`
}

// CheckResultResponse carries the verdict back to the caller. Score is null
// when the check was indeterminate and must not count toward aggregates.
type CheckResultResponse struct {
	Task   string   `json:"task"`
	Score  *float64 `json:"score"`
	Reason string   `json:"reason"`
}
