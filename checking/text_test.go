package checking

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"validator-orchestrator/aiclient"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func textTaskConfig() TaskConfig {
	return TaskConfig{
		Task:             "chat-llama-3-1-8b",
		ServerNeeded:     aiclient.LLMServer,
		CheckingFunction: CheckTextResult,
		Endpoint:         "/generate_text",
	}
}

func textResponse(t *testing.T, tokens []string, logprob float64) json.RawMessage {
	t.Helper()
	logits := make([]Logprob, 0, len(tokens))
	for _, token := range tokens {
		logits = append(logits, Logprob{
			Token:   token,
			Logprob: logprob,
			TopLogprobs: []TopLogprob{
				{Token: token, Logprob: logprob},
				{Token: "other", Logprob: logprob - 3},
			},
		})
	}
	body := TextResponseBody{
		Choices: []TextChoice{{
			Message:  &TextMessage{Role: "assistant", Content: "hello world"},
			Logprobs: &LogprobContent{Content: logits},
		}},
	}
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	return raw
}

func TestCheckTextResult_FailureAgreement(t *testing.T) {
	client := aiclient.NewMockClient()
	client.QueryResponse = nil
	client.QueryStatus = http.StatusBadRequest
	strategy := NewTextStrategy(client, DefaultScoringConfig())

	result := QueryResult{Task: "chat-llama-3-1-8b", StatusCode: ptr(http.StatusTooManyRequests)}
	verdict, err := strategy.CheckResult(context.Background(), result, json.RawMessage(`{}`), textTaskConfig())
	require.NoError(t, err)
	assert.Equal(t, 1.0, scoredValue(t, verdict))
}

func TestCheckTextResult_MalformedScoresZero(t *testing.T) {
	client := aiclient.NewMockClient()
	strategy := NewTextStrategy(client, DefaultScoringConfig())

	result := QueryResult{Task: "chat-llama-3-1-8b", FormattedResponse: json.RawMessage(`{"choices": []}`)}
	verdict, err := strategy.CheckResult(context.Background(), result, json.RawMessage(`{}`), textTaskConfig())
	require.NoError(t, err)
	assert.Equal(t, ReasonMalformedResponse, verdict.GetReason())
	assert.Equal(t, 0.0, scoredValue(t, verdict))
	assert.Equal(t, 0, client.QueryCalled)
}

func TestCheckTextResult_EnforcesMinerTextOnReference(t *testing.T) {
	client := aiclient.NewMockClient()
	client.QueryResponse = textResponse(t, []string{"hello", " world"}, -0.2)
	strategy := NewTextStrategy(client, DefaultScoringConfig())

	result := QueryResult{Task: "chat-llama-3-1-8b", FormattedResponse: textResponse(t, []string{"hello", " world"}, -0.2)}
	payload := json.RawMessage(`{"messages": [], "seed": 42, "temperature": 0.5}`)
	_, err := strategy.CheckResult(context.Background(), result, payload, textTaskConfig())
	require.NoError(t, err)

	sent, ok := client.LastQueryPayload.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "hello world", sent["enforced_str"])
	assert.Equal(t, false, sent["stream"])
	assert.Equal(t, float64(42), sent["seed"])
}

func TestCheckTextResult_IdenticalLogprobsScoreOne(t *testing.T) {
	client := aiclient.NewMockClient()
	client.QueryResponse = textResponse(t, []string{"hello", " world"}, -0.2)
	strategy := NewTextStrategy(client, DefaultScoringConfig())

	result := QueryResult{Task: "chat-llama-3-1-8b", FormattedResponse: textResponse(t, []string{"hello", " world"}, -0.2)}
	verdict, err := strategy.CheckResult(context.Background(), result, json.RawMessage(`{}`), textTaskConfig())
	require.NoError(t, err)
	assert.Equal(t, ReasonSimilarity, verdict.GetReason())
	assert.Equal(t, 1.0, scoredValue(t, verdict))
}

func TestCheckTextResult_TokenMismatchScoresMinusOne(t *testing.T) {
	client := aiclient.NewMockClient()
	client.QueryResponse = textResponse(t, []string{"goodbye", " world"}, -0.2)
	strategy := NewTextStrategy(client, DefaultScoringConfig())

	result := QueryResult{Task: "chat-llama-3-1-8b", FormattedResponse: textResponse(t, []string{"hello", " world"}, -0.2)}
	verdict, err := strategy.CheckResult(context.Background(), result, json.RawMessage(`{}`), textTaskConfig())
	require.NoError(t, err)
	assert.Equal(t, ReasonTokenMismatch, verdict.GetReason())
	assert.Equal(t, -1.0, scoredValue(t, verdict))
}

func TestCheckTextResult_LengthMismatchScoresMinusOne(t *testing.T) {
	client := aiclient.NewMockClient()
	client.QueryResponse = textResponse(t, []string{"hello"}, -0.2)
	strategy := NewTextStrategy(client, DefaultScoringConfig())

	result := QueryResult{Task: "chat-llama-3-1-8b", FormattedResponse: textResponse(t, []string{"hello", " world"}, -0.2)}
	verdict, err := strategy.CheckResult(context.Background(), result, json.RawMessage(`{}`), textTaskConfig())
	require.NoError(t, err)
	assert.Equal(t, ReasonTokenMismatch, verdict.GetReason())
	assert.Equal(t, -1.0, scoredValue(t, verdict))
}

func TestCheckTextResult_ReferenceFailureIsIndeterminate(t *testing.T) {
	client := aiclient.NewMockClient()
	client.QueryResponses = []aiclient.QueryScript{{Body: nil, Status: http.StatusInternalServerError}}
	strategy := NewTextStrategy(client, DefaultScoringConfig())

	result := QueryResult{Task: "chat-llama-3-1-8b", FormattedResponse: textResponse(t, []string{"hello"}, -0.2)}
	verdict, err := strategy.CheckResult(context.Background(), result, json.RawMessage(`{}`), textTaskConfig())
	require.NoError(t, err)
	assert.Equal(t, ReasonReferenceUnavailable, verdict.GetReason())
	_, ok := verdict.ScoreValue()
	assert.False(t, ok)
}

func TestCheckTextResult_DivergentLogprobsScoreBelowOne(t *testing.T) {
	client := aiclient.NewMockClient()
	client.QueryResponse = textResponse(t, []string{"hello", " world"}, -8.0)
	strategy := NewTextStrategy(client, DefaultScoringConfig())

	result := QueryResult{Task: "chat-llama-3-1-8b", FormattedResponse: textResponse(t, []string{"hello", " world"}, -0.2)}
	verdict, err := strategy.CheckResult(context.Background(), result, json.RawMessage(`{}`), textTaskConfig())
	require.NoError(t, err)
	score := scoredValue(t, verdict)
	assert.Less(t, score, 1.0)
	assert.GreaterOrEqual(t, score, 0.0)
}
