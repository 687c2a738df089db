package appointments

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/medtrack/pointsapi/internal/auth"
	"github.com/medtrack/pointsapi/internal/domain"
	"github.com/medtrack/pointsapi/internal/repository"

	"github.com/google/uuid"
)

// Handler exposes manual appointment entry under /api/appointments.
type Handler struct {
	service *Service
}

// NewHTTPHandler wraps the manual entry service. Mount it at both
// /api/appointments and /api/appointments/.
func NewHTTPHandler(service *Service) http.Handler {
	return &Handler{service: service}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	orgID, ok := auth.OrganizationIDFromContext(r.Context())
	if !ok {
		http.Error(w, "organization scope required", http.StatusUnauthorized)
		return
	}

	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/appointments"), "/")

	switch {
	case r.Method == http.MethodPost && rest == "":
		h.create(w, r, orgID, false)
	case r.Method == http.MethodPost && rest == "draft":
		h.create(w, r, orgID, true)
	case r.Method == http.MethodGet && rest == "":
		h.list(w, r, orgID, false)
	case r.Method == http.MethodGet && rest == "drafts":
		h.list(w, r, orgID, true)
	case r.Method == http.MethodPut && rest != "":
		h.update(w, r, orgID, rest)
	case r.Method == http.MethodDelete && rest != "":
		h.delete(w, r, orgID, rest)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

type batchCreateRequest struct {
	Appointments []CreateRequest `json:"appointments"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request, orgID uuid.UUID, draft bool) {
	var body batchCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}
	if len(body.Appointments) == 0 {
		http.Error(w, "appointments are required", http.StatusBadRequest)
		return
	}

	created := make([]domain.Appointment, 0, len(body.Appointments))
	for _, req := range body.Appointments {
		if req.OrganizationID != uuid.Nil {
			if err := auth.EnforceOrganizationScope(r.Context(), req.OrganizationID); err != nil {
				http.Error(w, err.Error(), http.StatusForbidden)
				return
			}
		}
		if draft {
			req.IsDraft = true
		}
		appointment, err := h.service.Create(r.Context(), orgID, req)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		created = append(created, appointment)
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request, orgID uuid.UUID, draftsOnly bool) {
	query := r.URL.Query()
	filter := ListFilter{
		DataType:        domain.UploadType(strings.TrimSpace(query.Get("data_type"))),
		LocationName:    strings.TrimSpace(query.Get("location_name")),
		IncludeExcluded: query.Get("include_excluded") == "true",
		DraftsOnly:      draftsOnly,
	}
	if filter.DataType != "" && !filter.DataType.Valid() {
		http.Error(w, fmt.Sprintf("invalid data type %q", filter.DataType), http.StatusBadRequest)
		return
	}

	var err error
	if filter.From, err = parseDateParam(query.Get("date_from")); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if filter.To, err = parseDateParam(query.Get("date_to")); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	rows, err := h.service.List(r.Context(), orgID, filter)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"appointments": rows,
		"total":        len(rows),
	})
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request, orgID uuid.UUID, rawID string) {
	id, err := uuid.Parse(rawID)
	if err != nil {
		http.Error(w, fmt.Sprintf("invalid appointment id: %v", err), http.StatusBadRequest)
		return
	}

	var patch domain.AppointmentPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	updated, err := h.service.Update(r.Context(), orgID, id, patch)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			http.Error(w, "appointment not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request, orgID uuid.UUID, rawID string) {
	id, err := uuid.Parse(rawID)
	if err != nil {
		http.Error(w, fmt.Sprintf("invalid appointment id: %v", err), http.StatusBadRequest)
		return
	}

	if err := h.service.Delete(r.Context(), orgID, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			http.Error(w, "appointment not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func parseDateParam(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	parsed, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", value)
	}
	return parsed, nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(payload)
}
