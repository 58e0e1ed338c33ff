package orchconfig

import (
	"os"
	"strings"
	"sync"
	"time"
	"validator-orchestrator/checking"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "ORCHESTRATOR_"

type Config struct {
	Api         ApiConfig              `koanf:"api"`
	ModelServer ModelServerConfig      `koanf:"model_server"`
	Lifecycle   LifecycleConfig        `koanf:"lifecycle"`
	Classifier  ClassifierConfig       `koanf:"classifier"`
	Scoring     checking.ScoringConfig `koanf:"scoring"`
	Tasks       []checking.TaskConfig  `koanf:"tasks"`
}

type ApiConfig struct {
	Port int `koanf:"port"`
}

type ModelServerConfig struct {
	Port                int `koanf:"port"`
	QueryTimeoutSeconds int `koanf:"query_timeout_seconds"`
}

func (c ModelServerConfig) QueryTimeout() time.Duration {
	return time.Duration(c.QueryTimeoutSeconds) * time.Second
}

type LifecycleConfig struct {
	Url            string `koanf:"url"`
	TimeoutSeconds int    `koanf:"timeout_seconds"`
}

func (c LifecycleConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

type ClassifierConfig struct {
	ModelPath string `koanf:"model_path"`
}

func DefaultConfig() Config {
	return Config{
		Api: ApiConfig{Port: 6920},
		ModelServer: ModelServerConfig{
			Port:                6919,
			QueryTimeoutSeconds: 120,
		},
		Lifecycle: LifecycleConfig{
			Url:            "http://localhost:6918",
			TimeoutSeconds: 600,
		},
		Classifier: ClassifierConfig{
			ModelPath: "image_similarity_xgb.model",
		},
		Scoring: checking.DefaultScoringConfig(),
	}
}

// ConfigManager loads the orchestrator config once at startup. The config is
// read-only afterwards.
type ConfigManager struct {
	currentConfig Config
	KoanProvider  koanf.Provider
	mutex         sync.Mutex
}

func LoadDefaultConfigManager() (*ConfigManager, error) {
	manager := ConfigManager{
		KoanProvider: getFileProvider(),
	}
	err := manager.Load()
	if err != nil {
		return nil, err
	}
	return &manager, nil
}

func (cm *ConfigManager) Load() error {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()
	config, err := readConfig(cm.KoanProvider)
	if err != nil {
		return err
	}
	cm.currentConfig = config
	return nil
}

func (cm *ConfigManager) GetConfig() *Config {
	return &cm.currentConfig
}

func readConfig(provider koanf.Provider) (Config, error) {
	config := DefaultConfig()

	k := koanf.New(".")
	if err := k.Load(provider, yaml.Parser()); err != nil {
		return config, err
	}
	// Env overrides: ORCHESTRATOR_MODEL_SERVER__PORT -> model_server.port
	if err := k.Load(env.Provider(envPrefix, ".", envKeyTransform), nil); err != nil {
		return config, err
	}

	if err := k.Unmarshal("", &config); err != nil {
		return config, err
	}
	return config, nil
}

func envKeyTransform(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, envPrefix))
	return strings.ReplaceAll(key, "__", ".")
}

func getFileProvider() koanf.Provider {
	return file.Provider(getConfigPath())
}

func getConfigPath() string {
	configPath := os.Getenv("ORCHESTRATOR_CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml" // Default value if the environment variable is not set
	}
	return configPath
}
