package checking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

var ErrUnknownTask = errors.New("unknown task")

// Strategy is one task family's checking algorithm. Implementations must
// convert every I/O failure into a conservative verdict; an error return
// means the check could not be attempted at all.
type Strategy interface {
	CheckResult(ctx context.Context, result QueryResult, payload json.RawMessage, cfg TaskConfig) (Verdict, error)
}

// Registry is the static task dispatch table: task id to server config and
// checking strategy. Built once at startup, read-only afterwards.
type Registry struct {
	tasks      map[string]TaskConfig
	strategies map[string]Strategy
}

func NewRegistry(configs []TaskConfig, strategies map[string]Strategy) (*Registry, error) {
	tasks := make(map[string]TaskConfig, len(configs))
	for _, cfg := range configs {
		if cfg.Task == "" {
			return nil, errors.New("task config with empty task id")
		}
		if _, exists := tasks[cfg.Task]; exists {
			return nil, fmt.Errorf("duplicate task config: %s", cfg.Task)
		}
		if _, known := strategies[cfg.CheckingFunction]; !known {
			return nil, fmt.Errorf("task %s references unknown checking function %q", cfg.Task, cfg.CheckingFunction)
		}
		tasks[cfg.Task] = cfg
	}
	return &Registry{tasks: tasks, strategies: strategies}, nil
}

func (r *Registry) Resolve(task string) (TaskConfig, Strategy, error) {
	cfg, ok := r.tasks[task]
	if !ok {
		return TaskConfig{}, nil, fmt.Errorf("%w: %s", ErrUnknownTask, task)
	}
	return cfg, r.strategies[cfg.CheckingFunction], nil
}

func (r *Registry) Tasks() []string {
	tasks := make([]string, 0, len(r.tasks))
	for task := range r.tasks {
		tasks = append(tasks, task)
	}
	sort.Strings(tasks)
	return tasks
}
