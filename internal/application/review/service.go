package review

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/snapjudge/snapjudge/internal/domain/request"
)

// Notifier announces a freshly created request to the review channel.
type Notifier interface {
	Announce(ctx context.Context, requestID string, image []byte, filename string) error
}

const announceTimeout = 30 * time.Second

// Service is the resolution engine: both inbound adapters funnel every
// resolution attempt through Resolve, which wraps the store's
// compare-and-set with input validation and origin-specific authorization.
type Service struct {
	store      request.Store
	notifier   Notifier
	reviewerID string
	logger     zerolog.Logger
}

func NewService(store request.Store, notifier Notifier, reviewerID string, logger zerolog.Logger) *Service {
	return &Service{
		store:      store,
		notifier:   notifier,
		reviewerID: reviewerID,
		logger:     logger.With().Str("service", "review").Logger(),
	}
}

// CreateRequest registers a pending request and announces it to the review
// channel. The announcement is best-effort and runs after the store insert
// committed: the uploader gets their id even when the channel post fails,
// because the request stays resolvable by command.
func (s *Service) CreateRequest(ctx context.Context, imageReference string, image []byte, filename string) (string, error) {
	id, err := s.store.Create(ctx, imageReference)
	if err != nil {
		return "", err
	}
	s.logger.Info().Str("request_id", id).Str("image", imageReference).Msg("evaluation request created")

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), announceTimeout)
		defer cancel()
		if err := s.notifier.Announce(ctx, id, image, filename); err != nil {
			s.logger.Error().Err(err).Str("request_id", id).Msg("announce failed")
		}
	}()

	return id, nil
}

// GetRequest returns the current state of a request.
func (s *Service) GetRequest(ctx context.Context, id string) (*request.EvaluationRequest, error) {
	return s.store.Get(ctx, id)
}

// Resolve records a result for a request, exactly once across both origins.
// The command path is restricted to the configured reviewer; the button
// path is open to anyone who can see the review channel. Whatever the
// origin, the store's TryResolve decides the race.
func (s *Service) Resolve(ctx context.Context, id, result string, origin request.Origin, actorID string) (*request.EvaluationRequest, error) {
	result = strings.TrimSpace(result)
	if result == "" {
		return nil, request.ErrEmptyResult
	}
	if id == "" {
		return nil, request.ErrNotFound
	}
	if origin == request.OriginCommand && actorID != s.reviewerID {
		s.logger.Warn().Str("request_id", id).Str("actor", actorID).Msg("unauthorized resolution attempt")
		return nil, request.ErrUnauthorized
	}

	resolved, err := s.store.TryResolve(ctx, id, result)
	if err != nil {
		return nil, err
	}
	s.logger.Info().
		Str("request_id", id).
		Str("result", result).
		Str("origin", string(origin)).
		Str("actor", actorID).
		Msg("request resolved")
	return resolved, nil
}
