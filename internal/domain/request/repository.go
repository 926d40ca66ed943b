package request

//go:generate go run go.uber.org/mock/mockgen -destination=mocks/mock_store.go -package=mocks . Store

import "context"

// Store owns the id-to-request mapping. All mutation goes through
// TryResolve; the transition PENDING -> DONE happens at most once per id.
type Store interface {
	// Create allocates a fresh id and inserts a pending request.
	Create(ctx context.Context, imageReference string) (string, error)

	// Get returns a copy of the request, or ErrNotFound.
	Get(ctx context.Context, id string) (*EvaluationRequest, error)

	// TryResolve performs the compare-and-set: ErrNotFound for unknown ids,
	// ErrAlreadyResolved once DONE, otherwise records the result and returns
	// the resolved snapshot. Must be indivisible per id.
	TryResolve(ctx context.Context, id, result string) (*EvaluationRequest, error)
}
