package reporting

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/medtrack/pointsapi/internal/auth"

	"github.com/google/uuid"
)

// Handler exposes the reports as GET endpoints under /api/reports/.
type Handler struct {
	service *Service
}

// NewHTTPHandler wraps the reporting service.
func NewHTTPHandler(service *Service) http.Handler {
	return &Handler{service: service}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	orgID, ok := auth.OrganizationIDFromContext(r.Context())
	if !ok {
		http.Error(w, "organization scope required", http.StatusUnauthorized)
		return
	}

	switch strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/reports"), "/") {
	case "tech-points":
		h.techPoints(w, r, orgID)
	case "monthly-tech-points":
		h.monthlyTechPoints(w, r, orgID)
	case "scheduled-by-provider":
		h.scheduledByProvider(w, r, orgID)
	case "specialty-comparison":
		h.specialtyComparison(w, r, orgID)
	case "weekly-by-location":
		h.weeklyByLocation(w, r, orgID)
	case "dashboard":
		h.dashboard(w, r, orgID)
	case "locations":
		h.locations(w, r, orgID)
	default:
		http.Error(w, "unknown report", http.StatusNotFound)
	}
}

func (h *Handler) techPoints(w http.ResponseWriter, r *http.Request, orgID uuid.UUID) {
	location, month, ok := locationAndMonth(w, r)
	if !ok {
		return
	}
	report, err := h.service.TechPointsByLocation(r.Context(), orgID, location, month, r.URL.Query().Get("period"))
	respond(w, report, err)
}

func (h *Handler) monthlyTechPoints(w http.ResponseWriter, r *http.Request, orgID uuid.UUID) {
	location, month, ok := locationAndMonth(w, r)
	if !ok {
		return
	}
	report, err := h.service.MonthlyTechPoints(r.Context(), orgID, location, month)
	respond(w, report, err)
}

func (h *Handler) scheduledByProvider(w http.ResponseWriter, r *http.Request, orgID uuid.UUID) {
	location, month, ok := locationAndMonth(w, r)
	if !ok {
		return
	}
	report, err := h.service.ScheduledPointsByProvider(r.Context(), orgID, location, month)
	respond(w, report, err)
}

func (h *Handler) specialtyComparison(w http.ResponseWriter, r *http.Request, orgID uuid.UUID) {
	month1 := strings.TrimSpace(r.URL.Query().Get("month1"))
	month2 := strings.TrimSpace(r.URL.Query().Get("month2"))
	if month1 == "" || month2 == "" {
		http.Error(w, "month1 and month2 are required", http.StatusBadRequest)
		return
	}
	report, err := h.service.SpecialtyComparison(r.Context(), orgID, month1, month2)
	respond(w, report, err)
}

func (h *Handler) weeklyByLocation(w http.ResponseWriter, r *http.Request, orgID uuid.UUID) {
	month := strings.TrimSpace(r.URL.Query().Get("month"))
	if month == "" {
		http.Error(w, "month is required", http.StatusBadRequest)
		return
	}
	week, err := strconv.Atoi(r.URL.Query().Get("week"))
	if err != nil {
		http.Error(w, fmt.Sprintf("invalid week: %v", err), http.StatusBadRequest)
		return
	}
	report, err := h.service.WeeklyPointsByLocation(r.Context(), orgID, month, week)
	respond(w, report, err)
}

func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request, orgID uuid.UUID) {
	days := 10
	if raw := r.URL.Query().Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			http.Error(w, "invalid days", http.StatusBadRequest)
			return
		}
		days = parsed
	}

	var locationNames []string
	if raw := strings.TrimSpace(r.URL.Query().Get("locations")); raw != "" {
		for _, name := range strings.Split(raw, ",") {
			if name = strings.TrimSpace(name); name != "" {
				locationNames = append(locationNames, name)
			}
		}
	}

	report, err := h.service.Overview(r.Context(), orgID, locationNames, days)
	respond(w, report, err)
}

func (h *Handler) locations(w http.ResponseWriter, r *http.Request, orgID uuid.UUID) {
	report, err := h.service.LocationSummary(r.Context(), orgID, strings.TrimSpace(r.URL.Query().Get("search")))
	respond(w, report, err)
}

func locationAndMonth(w http.ResponseWriter, r *http.Request) (string, string, bool) {
	location := strings.TrimSpace(r.URL.Query().Get("location"))
	month := strings.TrimSpace(r.URL.Query().Get("month"))
	if location == "" || month == "" {
		http.Error(w, "location and month are required", http.StatusBadRequest)
		return "", "", false
	}
	return location, month, true
}

func respond(w http.ResponseWriter, payload any, err error) {
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(payload)
}
