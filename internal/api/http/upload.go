package httpapi

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/snapjudge/snapjudge/internal/domain/request"
)

const maxUploadBytes = 10 << 20

type base64UploadRequest struct {
	ImageBase64 string `json:"imageBase64"`
}

// upload accepts an image (multipart "file" field, or the legacy JSON
// base64 body), stores it, registers an evaluation request, and returns the
// id. The channel announcement is best-effort and never affects this
// response.
func (s *Server) upload(w http.ResponseWriter, r *http.Request) {
	image, filename, err := readUploadImage(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(image) == 0 {
		respondError(w, http.StatusBadRequest, "empty image")
		return
	}

	storedName := uuid.NewString() + normalizeExt(filename)
	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		respondError(w, http.StatusInternalServerError, "could not store upload")
		return
	}
	if err := os.WriteFile(filepath.Join(s.uploadDir, storedName), image, 0o644); err != nil {
		s.logger.Error().Err(err).Msg("writing upload failed")
		respondError(w, http.StatusInternalServerError, "could not store upload")
		return
	}

	imageRef := "/uploads/" + storedName
	id, err := s.reviewSvc.CreateRequest(r.Context(), imageRef, image, storedName)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "could not create request")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"id": id})
}

func readUploadImage(r *http.Request) ([]byte, string, error) {
	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "multipart/form-data") {
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			return nil, "", errors.New("malformed multipart body")
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			return nil, "", errors.New("missing file field")
		}
		defer file.Close()
		data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
		if err != nil {
			return nil, "", errors.New("unreadable file")
		}
		if len(data) > maxUploadBytes {
			return nil, "", errors.New("file too large")
		}
		return data, header.Filename, nil
	}

	var req base64UploadRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxUploadBytes)).Decode(&req); err != nil {
		return nil, "", errors.New("malformed body")
	}
	data, err := base64.StdEncoding.DecodeString(req.ImageBase64)
	if err != nil {
		return nil, "", errors.New("invalid imageBase64")
	}
	return data, "face.png", nil
}

func normalizeExt(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".png", ".jpg", ".jpeg", ".gif", ".webp":
		return ext
	default:
		return ".png"
	}
}

// getResult is a direct passthrough to the store.
func (s *Server) getResult(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	req, err := s.reviewSvc.GetRequest(r.Context(), id)
	if err != nil {
		if errors.Is(err, request.ErrNotFound) {
			respondError(w, http.StatusNotFound, "no such id")
			return
		}
		respondError(w, http.StatusInternalServerError, "lookup failed")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"id":             req.ID,
		"status":         req.Status,
		"result":         req.Result,
		"imageReference": req.ImageReference,
	})
}
