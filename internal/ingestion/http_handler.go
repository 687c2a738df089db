package ingestion

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/medtrack/pointsapi/internal/auth"
	"github.com/medtrack/pointsapi/internal/domain"
	"github.com/medtrack/pointsapi/internal/repository"

	"github.com/google/uuid"
)

// Handler exposes upload ingestion and management as HTTP endpoints.
type Handler struct {
	service    *Service
	uploadRepo repository.UploadRepository
}

// NewHTTPHandler wraps the service with upload endpoints. Mount it at both
// /api/uploads and /api/uploads/ so item paths route here too.
func NewHTTPHandler(service *Service, uploadRepo repository.UploadRepository) http.Handler {
	return &Handler{service: service, uploadRepo: uploadRepo}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/uploads"), "/")

	switch {
	case r.Method == http.MethodPost && rest == "":
		h.ingest(w, r)
	case r.Method == http.MethodGet && rest == "":
		h.list(w, r)
	case r.Method == http.MethodGet && rest != "":
		h.get(w, r, rest)
	case r.Method == http.MethodDelete && rest != "":
		h.delete(w, r, rest)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) ingest(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		http.Error(w, fmt.Sprintf("invalid form data: %v", err), http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, fmt.Sprintf("file required: %v", err), http.StatusBadRequest)
		return
	}
	defer file.Close()

	orgID, ok := auth.OrganizationIDFromContext(r.Context())
	if !ok {
		http.Error(w, "organization scope required", http.StatusUnauthorized)
		return
	}
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "user identity required", http.StatusUnauthorized)
		return
	}

	uploadType := domain.UploadType(strings.TrimSpace(r.FormValue("uploadType")))
	if !uploadType.Valid() {
		http.Error(w, fmt.Sprintf("invalid upload type %q", uploadType), http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to read file: %v", err), http.StatusBadRequest)
		return
	}

	upload, err := h.service.Ingest(r.Context(), Request{
		OrganizationID: orgID,
		UserID:         userID,
		UploadType:     uploadType,
		FileName:       header.Filename,
		Data:           bytes.NewReader(data),
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	status := http.StatusCreated
	if upload.Status == domain.UploadStatusFailed {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, upload)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	orgID, ok := auth.OrganizationIDFromContext(r.Context())
	if !ok {
		http.Error(w, "organization scope required", http.StatusUnauthorized)
		return
	}

	var uploadType *domain.UploadType
	if raw := strings.TrimSpace(r.URL.Query().Get("type")); raw != "" {
		parsed := domain.UploadType(raw)
		if !parsed.Valid() {
			http.Error(w, fmt.Sprintf("invalid upload type %q", raw), http.StatusBadRequest)
			return
		}
		uploadType = &parsed
	}

	uploads, err := h.uploadRepo.List(r.Context(), orgID, uploadType)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, uploads)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request, rawID string) {
	upload, ok := h.scopedUpload(w, r, rawID)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, upload)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request, rawID string) {
	upload, ok := h.scopedUpload(w, r, rawID)
	if !ok {
		return
	}

	if err := h.uploadRepo.Delete(r.Context(), upload.ID); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// scopedUpload loads an upload and verifies it belongs to the caller's
// organization. Cross-organization IDs read as not found.
func (h *Handler) scopedUpload(w http.ResponseWriter, r *http.Request, rawID string) (domain.Upload, bool) {
	id, err := uuid.Parse(rawID)
	if err != nil {
		http.Error(w, fmt.Sprintf("invalid upload id: %v", err), http.StatusBadRequest)
		return domain.Upload{}, false
	}

	orgID, ok := auth.OrganizationIDFromContext(r.Context())
	if !ok {
		http.Error(w, "organization scope required", http.StatusUnauthorized)
		return domain.Upload{}, false
	}

	upload, err := h.uploadRepo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			http.Error(w, "upload not found", http.StatusNotFound)
		} else {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return domain.Upload{}, false
	}
	if upload.OrganizationID != orgID {
		http.Error(w, "upload not found", http.StatusNotFound)
		return domain.Upload{}, false
	}
	return upload, true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(payload)
}
