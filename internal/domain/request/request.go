package request

import (
	"errors"
	"time"
)

// Status represents the lifecycle state of an evaluation request.
type Status string

const (
	StatusPending Status = "PENDING"
	StatusDone    Status = "DONE"
)

// Origin identifies which inbound path is attempting a resolution.
type Origin string

const (
	OriginButton  Origin = "BUTTON"
	OriginCommand Origin = "COMMAND"
)

var (
	ErrNotFound        = errors.New("request not found")
	ErrAlreadyResolved = errors.New("request already resolved")
	ErrUnauthorized    = errors.New("actor not permitted to resolve")
	ErrEmptyResult     = errors.New("result must not be empty")
)

// EvaluationRequest is a photo awaiting, or holding, a human judgment.
// Result is non-empty if and only if Status is DONE.
type EvaluationRequest struct {
	ID             string     `json:"id"`
	Status         Status     `json:"status"`
	Result         string     `json:"result,omitempty"`
	ImageReference string     `json:"imageReference"`
	CreatedAt      time.Time  `json:"createdAt"`
	ResolvedAt     *time.Time `json:"resolvedAt,omitempty"`
}

// Resolved reports whether the request has reached its terminal state.
func (r *EvaluationRequest) Resolved() bool {
	return r.Status == StatusDone
}
