package main

import (
	"log"
	"validator-orchestrator/aiclient"
	"validator-orchestrator/checking"
	"validator-orchestrator/classifier"
	"validator-orchestrator/internal/server"
	"validator-orchestrator/logging"
	"validator-orchestrator/metrics"
	"validator-orchestrator/orchconfig"
	"validator-orchestrator/servermanager"
)

func main() {
	configManager, err := orchconfig.LoadDefaultConfigManager()
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}
	config := configManager.GetConfig()

	sameImageModel, err := classifier.LoadEnsemble(config.Classifier.ModelPath)
	if err != nil {
		log.Fatalf("Error loading same-image classifier from %s: %v", config.Classifier.ModelPath, err)
	}

	clientFactory := &aiclient.HttpClientFactory{}
	client := clientFactory.CreateClient(config.ModelServer.Port, config.ModelServer.QueryTimeout())
	lifecycle := servermanager.NewHttpServerManager(config.Lifecycle.Url, config.Lifecycle.Timeout())

	strategies := map[string]checking.Strategy{
		checking.CheckImageResult: checking.NewImageStrategy(client, sameImageModel, config.Scoring),
		checking.CheckTextResult:  checking.NewTextStrategy(client, config.Scoring),
	}
	registry, err := checking.NewRegistry(config.Tasks, strategies)
	if err != nil {
		log.Fatalf("Error building task registry: %v", err)
	}

	checkMetrics := metrics.NewCheckMetrics()
	orchestrator := checking.NewOrchestrator(registry, checking.NewGate(), lifecycle, checkMetrics)

	logging.Info("Starting validator orchestrator", logging.System,
		"port", config.Api.Port, "tasks", registry.Tasks())

	s := server.NewServer(orchestrator, checkMetrics)
	if err := s.Start(config.Api.Port); err != nil {
		log.Fatalf("Server stopped: %v", err)
	}
}
