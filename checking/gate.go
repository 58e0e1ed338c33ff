package checking

import "context"

// Gate serializes the whole checking pipeline. The model servers are a
// singleton GPU resource: two concurrent "ensure model X is loaded"
// transitions would race, so at most one check may hold the gate at a time.
type Gate struct {
	slot chan struct{}
}

func NewGate() *Gate {
	return &Gate{slot: make(chan struct{}, 1)}
}

// RunExclusive acquires the gate, runs the action and releases the gate on
// every exit path. Waiting is cancellable through the context.
func RunExclusive[T any](ctx context.Context, g *Gate, action func() (T, error)) (T, error) {
	var zero T
	select {
	case g.slot <- struct{}{}:
	case <-ctx.Done():
		return zero, ctx.Err()
	}
	defer func() { <-g.slot }()

	return action()
}
