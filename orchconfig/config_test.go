package orchconfig

import (
	"testing"
	"validator-orchestrator/aiclient"
	"validator-orchestrator/checking"

	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testYaml = `
api:
  port: 7000
model_server:
  port: 7001
  query_timeout_seconds: 30
lifecycle:
  url: "http://lifecycle:7002"
  timeout_seconds: 300
classifier:
  model_path: "/models/similarity.model"
scoring:
  gross_mismatch_floor: 0.5
tasks:
  - task: "text-to-image-playground"
    server_needed: "image_server"
    checking_function: "check_image_result"
    endpoint: "/text-to-image"
  - task: "chat-llama-3-1-8b"
    server_needed: "llm_server"
    checking_function: "check_text_result"
    endpoint: "/generate_text"
    load_model_config:
      model: "unsloth/Meta-Llama-3.1-8B-Instruct"
      half_precision: true
      max_model_len: 8192
`

func loadTestConfig(t *testing.T, yamlText string) *Config {
	t.Helper()
	manager := ConfigManager{KoanProvider: rawbytes.Provider([]byte(yamlText))}
	require.NoError(t, manager.Load())
	return manager.GetConfig()
}

func TestLoadConfig(t *testing.T) {
	config := loadTestConfig(t, testYaml)

	assert.Equal(t, 7000, config.Api.Port)
	assert.Equal(t, 7001, config.ModelServer.Port)
	assert.Equal(t, 30, config.ModelServer.QueryTimeoutSeconds)
	assert.Equal(t, "http://lifecycle:7002", config.Lifecycle.Url)
	assert.Equal(t, "/models/similarity.model", config.Classifier.ModelPath)

	require.Len(t, config.Tasks, 2)
	imageTask := config.Tasks[0]
	assert.Equal(t, "text-to-image-playground", imageTask.Task)
	assert.Equal(t, aiclient.ImageServer, imageTask.ServerNeeded)
	assert.Equal(t, checking.CheckImageResult, imageTask.CheckingFunction)
	assert.Nil(t, imageTask.LoadModelConfig)

	textTask := config.Tasks[1]
	require.NotNil(t, textTask.LoadModelConfig)
	assert.Equal(t, "unsloth/Meta-Llama-3.1-8B-Instruct", textTask.LoadModelConfig.Model)
	require.NotNil(t, textTask.LoadModelConfig.MaxModelLen)
	assert.Equal(t, 8192, *textTask.LoadModelConfig.MaxModelLen)
}

func TestLoadConfig_DefaultsSurvivePartialConfig(t *testing.T) {
	config := loadTestConfig(t, testYaml)

	// Only gross_mismatch_floor is set in the yaml; the rest of the scoring
	// block keeps its defaults.
	assert.Equal(t, 0.5, config.Scoring.GrossMismatchFloor)
	defaults := checking.DefaultScoringConfig()
	assert.Equal(t, defaults.ForgerySimilarityFloor, config.Scoring.ForgerySimilarityFloor)
	assert.Equal(t, defaults.PerfectScoreCutoff, config.Scoring.PerfectScoreCutoff)
	assert.Equal(t, defaults.ProbabilityWeight, config.Scoring.ProbabilityWeight)
}

func TestLoadConfig_EmptyYamlYieldsDefaults(t *testing.T) {
	config := loadTestConfig(t, "{}")

	defaults := DefaultConfig()
	assert.Equal(t, defaults.Api.Port, config.Api.Port)
	assert.Equal(t, defaults.ModelServer.Port, config.ModelServer.Port)
	assert.Equal(t, defaults.Lifecycle.Url, config.Lifecycle.Url)
	assert.Equal(t, defaults.Scoring, config.Scoring)
	assert.Empty(t, config.Tasks)
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	t.Setenv("ORCHESTRATOR_API__PORT", "9999")
	t.Setenv("ORCHESTRATOR_LIFECYCLE__URL", "http://override:1234")

	config := loadTestConfig(t, testYaml)
	assert.Equal(t, 9999, config.Api.Port)
	assert.Equal(t, "http://override:1234", config.Lifecycle.Url)
}

func TestQueryTimeoutConversion(t *testing.T) {
	config := loadTestConfig(t, testYaml)
	assert.Equal(t, "30s", config.ModelServer.QueryTimeout().String())
	assert.Equal(t, "5m0s", config.Lifecycle.Timeout().String())
}
