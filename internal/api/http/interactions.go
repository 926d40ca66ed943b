package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/snapjudge/snapjudge/internal/discord"
	"github.com/snapjudge/snapjudge/internal/domain/request"
)

const maxInteractionBytes = 1 << 20

// interactions handles Discord's signed callbacks. The body is read once;
// signature verification runs against those exact bytes before anything is
// parsed. No outbound call happens before the synchronous reply.
func (s *Server) interactions(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxInteractionBytes))
	if err != nil {
		respondError(w, http.StatusBadRequest, "unreadable body")
		return
	}

	timestamp := r.Header.Get("X-Signature-Timestamp")
	signature := r.Header.Get("X-Signature-Ed25519")
	if timestamp == "" || signature == "" ||
		!discord.VerifyInteraction(s.publicKey, timestamp, body, signature) {
		respondError(w, http.StatusUnauthorized, "invalid signature")
		return
	}

	var interaction discord.Interaction
	if err := json.Unmarshal(body, &interaction); err != nil {
		respondError(w, http.StatusBadRequest, "malformed payload")
		return
	}

	switch interaction.Type {
	case discord.InteractionPing:
		respondJSON(w, http.StatusOK, discord.Pong())
	case discord.InteractionComponent:
		respondJSON(w, http.StatusOK, s.handleComponent(r, &interaction))
	default:
		respondJSON(w, http.StatusOK, discord.EphemeralReply("ok"))
	}
}

// handleComponent resolves a rating button click and builds the ephemeral
// acknowledgment shown to the clicking user.
func (s *Server) handleComponent(r *http.Request, interaction *discord.Interaction) discord.InteractionResponse {
	if interaction.Data == nil {
		return discord.EphemeralReply("already resolved")
	}
	id, label, ok := discord.ParseRatingCustomID(interaction.Data.CustomID)
	if !ok {
		// Malformed tokens are indistinguishable from unknown requests as
		// far as the clicking user is concerned.
		return discord.EphemeralReply("already resolved")
	}

	resolved, err := s.reviewSvc.Resolve(r.Context(), id, label, request.OriginButton, interaction.ActorID())
	switch {
	case err == nil:
		return discord.EphemeralReply("resolved: " + resolved.Result)
	case errors.Is(err, request.ErrAlreadyResolved), errors.Is(err, request.ErrNotFound):
		return discord.EphemeralReply("already resolved")
	default:
		s.logger.Error().Err(err).Str("custom_id", interaction.Data.CustomID).Msg("component resolution failed")
		return discord.EphemeralReply("something went wrong, try again")
	}
}
