package checking

import (
	"context"
	"encoding/json"
	"time"
	"validator-orchestrator/aiclient"
	"validator-orchestrator/logging"
	"validator-orchestrator/metrics"

	"github.com/google/uuid"
)

// ServerLifecycle is what the orchestrator needs from the external server
// lifecycle manager.
type ServerLifecycle interface {
	EnsureServerRunning(ctx context.Context, kind aiclient.ServerKind) error
	LoadModel(ctx context.Context, config ModelConfig) error
}

// Orchestrator runs the full checking pipeline for one request: resolve the
// task, bring up the right server and model, and invoke the task family's
// checking strategy. The whole pipeline runs under the exclusive gate.
type Orchestrator struct {
	registry  *Registry
	gate      *Gate
	lifecycle ServerLifecycle
	metrics   *metrics.CheckMetrics
}

func NewOrchestrator(registry *Registry, gate *Gate, lifecycle ServerLifecycle, checkMetrics *metrics.CheckMetrics) *Orchestrator {
	return &Orchestrator{
		registry:  registry,
		gate:      gate,
		lifecycle: lifecycle,
		metrics:   checkMetrics,
	}
}

// CheckResult checks one miner result and returns its verdict. ErrUnknownTask
// surfaces before any outbound query is issued; lifecycle failures mean the
// check never ran and are reported as errors, not scores.
func (o *Orchestrator) CheckResult(ctx context.Context, task string, result QueryResult, payload json.RawMessage) (Verdict, error) {
	checkId := uuid.New().String()
	return RunExclusive(ctx, o.gate, func() (Verdict, error) {
		logging.Info("Checking a result", logging.Checking, "checkId", checkId, "task", task)

		cfg, strategy, err := o.registry.Resolve(task)
		if err != nil {
			return nil, err
		}

		if err := o.lifecycle.EnsureServerRunning(ctx, cfg.ServerNeeded); err != nil {
			logging.Error("Failed to ensure server is running", logging.Checking, "checkId", checkId, "task", task, "error", err)
			return nil, err
		}
		if cfg.LoadModelConfig != nil {
			if err := o.lifecycle.LoadModel(ctx, *cfg.LoadModelConfig); err != nil {
				logging.Error("Failed to load model", logging.Checking, "checkId", checkId, "task", task, "error", err)
				return nil, err
			}
		}

		started := time.Now()
		verdict, err := strategy.CheckResult(ctx, result, payload, cfg)
		if err != nil {
			return nil, err
		}

		if o.metrics != nil {
			o.metrics.ObserveCheck(task, string(verdict.GetReason()), time.Since(started).Seconds())
		}
		if score, ok := verdict.ScoreValue(); ok {
			logging.Info("Check complete", logging.Checking, "checkId", checkId, "task", task, "score", score, "reason", verdict.GetReason())
		} else {
			logging.Info("Check indeterminate", logging.Checking, "checkId", checkId, "task", task, "reason", verdict.GetReason())
		}
		return verdict, nil
	})
}
