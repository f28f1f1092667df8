package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ayusman/abhinaya/internal/skeleton"
	"github.com/ayusman/abhinaya/internal/store"
)

// RecordingHandler handles HTTP requests for frame recordings.
type RecordingHandler struct {
	store *store.Store
}

// NewRecordingHandler creates a new RecordingHandler with the given store.
func NewRecordingHandler(s *store.Store) *RecordingHandler {
	return &RecordingHandler{store: s}
}

// ServeHTTP routes /api/recordings, /api/recordings/{id} and
// /api/recordings/{id}/frames.
func (h *RecordingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	parts := splitPath(r.URL.Path, "/api/recordings")

	switch {
	case len(parts) == 0:
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.list(w, r)
	case len(parts) == 1:
		switch r.Method {
		case http.MethodGet:
			h.get(w, r, parts[0])
		case http.MethodPut:
			h.rename(w, r, parts[0])
		case http.MethodDelete:
			h.delete(w, r, parts[0])
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	case len(parts) == 2 && parts[1] == "frames":
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.frames(w, r, parts[0])
	default:
		http.NotFound(w, r)
	}
}

type recordingResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Frames    int    `json:"frames"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

type listRecordingsResponse struct {
	Recordings []recordingResponse `json:"recordings"`
}

type renameRecordingRequest struct {
	Name string `json:"name"`
}

type framesResponse struct {
	RecordingID string           `json:"recording_id"`
	Frames      []skeleton.Frame `json:"frames"`
}

func toRecordingResponse(rec *store.Recording) recordingResponse {
	return recordingResponse{
		ID:        rec.ID,
		Name:      rec.Name,
		Frames:    rec.Frames,
		CreatedAt: formatTime(rec.CreatedAt),
		UpdatedAt: formatTime(rec.UpdatedAt),
	}
}

func (h *RecordingHandler) notFoundOr(w http.ResponseWriter, err error, message string) {
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Recording not found")
		return
	}
	writeError(w, http.StatusInternalServerError, message)
}

// list handles GET /api/recordings.
func (h *RecordingHandler) list(w http.ResponseWriter, r *http.Request) {
	recordings, err := h.store.Recordings().List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list recordings")
		return
	}

	response := listRecordingsResponse{
		Recordings: make([]recordingResponse, 0, len(recordings)),
	}
	for _, rec := range recordings {
		response.Recordings = append(response.Recordings, toRecordingResponse(rec))
	}

	writeJSON(w, http.StatusOK, response)
}

// get handles GET /api/recordings/{id}.
func (h *RecordingHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	rec, err := h.store.Recordings().GetByID(id)
	if err != nil {
		h.notFoundOr(w, err, "Failed to get recording")
		return
	}
	writeJSON(w, http.StatusOK, toRecordingResponse(rec))
}

// rename handles PUT /api/recordings/{id}.
func (h *RecordingHandler) rename(w http.ResponseWriter, r *http.Request, id string) {
	var req renameRecordingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	if err := h.store.Recordings().Rename(id, req.Name); err != nil {
		h.notFoundOr(w, err, "Failed to rename recording")
		return
	}

	rec, err := h.store.Recordings().GetByID(id)
	if err != nil {
		h.notFoundOr(w, err, "Failed to get recording")
		return
	}
	writeJSON(w, http.StatusOK, toRecordingResponse(rec))
}

// delete handles DELETE /api/recordings/{id}. Frames are removed with it.
func (h *RecordingHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.store.Recordings().Delete(id); err != nil {
		h.notFoundOr(w, err, "Failed to delete recording")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// frames handles GET /api/recordings/{id}/frames.
func (h *RecordingHandler) frames(w http.ResponseWriter, r *http.Request, id string) {
	if _, err := h.store.Recordings().GetByID(id); err != nil {
		h.notFoundOr(w, err, "Failed to get recording")
		return
	}

	frames, err := h.store.Frames().GetByRecordingID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get frames")
		return
	}
	if frames == nil {
		frames = []skeleton.Frame{}
	}

	writeJSON(w, http.StatusOK, framesResponse{RecordingID: id, Frames: frames})
}
