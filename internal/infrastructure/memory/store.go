package memory

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/snapjudge/snapjudge/internal/domain/request"
)

// firstID keeps issued ids readable in chat; requests are addressed by hand
// in the !rate command, so short decimal tokens beat UUIDs here.
const firstID = 1000

// Store implements request.Store with a mutex-guarded map. The whole table
// lives for the process lifetime; entries are never evicted.
type Store struct {
	mu       sync.Mutex
	requests map[string]*request.EvaluationRequest
	nextID   int64
}

func NewStore() *Store {
	return &Store{
		requests: make(map[string]*request.EvaluationRequest),
		nextID:   firstID,
	}
}

func (s *Store) Create(_ context.Context, imageReference string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := strconv.FormatInt(s.nextID, 10)
	s.nextID++
	s.requests[id] = &request.EvaluationRequest{
		ID:             id,
		Status:         request.StatusPending,
		ImageReference: imageReference,
		CreatedAt:      time.Now().UTC(),
	}
	return id, nil
}

func (s *Store) Get(_ context.Context, id string) (*request.EvaluationRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.requests[id]
	if !ok {
		return nil, request.ErrNotFound
	}
	return snapshot(r), nil
}

// TryResolve is the single check-and-set of the whole service. The status
// read and the status write happen under one lock acquisition with no
// blocking call in between, so two racing resolutions for the same id can
// never both succeed.
func (s *Store) TryResolve(_ context.Context, id, result string) (*request.EvaluationRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.requests[id]
	if !ok {
		return nil, request.ErrNotFound
	}
	if r.Status == request.StatusDone {
		return nil, request.ErrAlreadyResolved
	}
	now := time.Now().UTC()
	r.Status = request.StatusDone
	r.Result = result
	r.ResolvedAt = &now
	return snapshot(r), nil
}

// snapshot copies an entry so callers can never mutate the map's view.
func snapshot(r *request.EvaluationRequest) *request.EvaluationRequest {
	cp := *r
	if r.ResolvedAt != nil {
		t := *r.ResolvedAt
		cp.ResolvedAt = &t
	}
	return &cp
}
