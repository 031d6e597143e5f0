package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/example/classroom-booking/internal/application"
	"github.com/example/classroom-booking/internal/booking"
)

type classroomService interface {
	CreateClassroom(ctx context.Context, params application.CreateClassroomParams) (booking.Classroom, error)
	GetClassroom(ctx context.Context, principal application.Principal, id string) (application.ClassroomView, error)
	ListClassrooms(ctx context.Context, params application.ListClassroomsParams) ([]application.ClassroomView, error)
	ListLevels(ctx context.Context, principal application.Principal) ([]int, error)
	DeleteClassroom(ctx context.Context, principal application.Principal, classroomID string) error
}

type ClassroomHandler struct {
	service   classroomService
	validator *requestValidator
	responder responder
	logger    *slog.Logger
}

func NewClassroomHandler(service classroomService, logger *slog.Logger) *ClassroomHandler {
	base := defaultLogger(logger)
	return &ClassroomHandler{service: service, validator: newRequestValidator(), responder: newResponder(base), logger: base}
}

func (h *ClassroomHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "ClassroomHandler", operation, attrs...)
}

func (h *ClassroomHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req classroomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "principal_id", principal.UserID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode classroom request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}
	if fieldErrs := h.validator.Validate(req); fieldErrs != nil {
		h.responder.handleServiceError(r.Context(), w, &application.ValidationError{FieldErrors: fieldErrs})
		return
	}

	logger := h.log(r.Context(), "Create", "principal_id", principal.UserID)

	classroom, err := h.service.CreateClassroom(r.Context(), application.CreateClassroomParams{
		Principal: principal,
		Input:     req.toInput(),
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "classroom creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("classroom_id", classroom.ID).InfoContext(r.Context(), "classroom created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, classroomResponse{
		Classroom: toClassroomDTO(application.ClassroomView{Classroom: classroom, Availability: booking.AvailabilityAvailable}),
	})
}

func (h *ClassroomHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	view, err := h.service.GetClassroom(r.Context(), principal, id)
	if err != nil {
		h.log(r.Context(), "Get", "classroom_id", id).ErrorContext(r.Context(), "classroom lookup failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, classroomResponse{Classroom: toClassroomDTO(view)})
}

func (h *ClassroomHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	params, err := listClassroomsParams(r, principal)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger := h.log(r.Context(), "List", "principal_id", principal.UserID)
	views, err := h.service.ListClassrooms(r.Context(), params)
	if err != nil {
		logger.ErrorContext(r.Context(), "classroom list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("result_count", len(views)).InfoContext(r.Context(), "classrooms listed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listClassroomsResponse{Classrooms: toClassroomDTOs(views)})
}

func (h *ClassroomHandler) Levels(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	levels, err := h.service.ListLevels(r.Context(), principal)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	if levels == nil {
		levels = []int{}
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, levelsResponse{Levels: levels})
}

func (h *ClassroomHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Delete", "principal_id", principal.UserID, "classroom_id", id)
	if err := h.service.DeleteClassroom(r.Context(), principal, id); err != nil {
		logger.ErrorContext(r.Context(), "classroom delete failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "classroom deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func listClassroomsParams(r *http.Request, principal application.Principal) (application.ListClassroomsParams, error) {
	q := r.URL.Query()
	params := application.ListClassroomsParams{
		Principal:     principal,
		Location:      strings.TrimSpace(q.Get("location")),
		Date:          strings.TrimSpace(q.Get("date")),
		StartTime:     strings.TrimSpace(q.Get("start")),
		EndTime:       strings.TrimSpace(q.Get("end")),
		OnlyAvailable: strings.EqualFold(strings.TrimSpace(q.Get("status")), string(booking.AvailabilityAvailable)),
	}

	vErr := &application.ValidationError{}
	parseInt := func(field string) *int {
		raw := strings.TrimSpace(q.Get(field))
		if raw == "" {
			return nil
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			if vErr.FieldErrors == nil {
				vErr.FieldErrors = make(map[string]string)
			}
			vErr.FieldErrors[field] = field + " must be an integer"
			return nil
		}
		return &n
	}
	params.Level = parseInt("level")
	params.MinCapacity = parseInt("capacity")
	if vErr.HasErrors() {
		return params, vErr
	}

	if raw := strings.TrimSpace(q.Get("equipment")); raw != "" {
		for _, item := range strings.Split(raw, ",") {
			if item = strings.TrimSpace(item); item != "" {
				params.Equipment = append(params.Equipment, item)
			}
		}
	}
	return params, nil
}

type classroomRequest struct {
	Name      string   `json:"name" validate:"required"`
	Location  string   `json:"location" validate:"required"`
	Capacity  int      `json:"capacity" validate:"min=0"`
	Level     *int     `json:"level" validate:"required"`
	Equipment []string `json:"equipment"`
}

func (r classroomRequest) toInput() application.ClassroomInput {
	level := 0
	if r.Level != nil {
		level = *r.Level
	}
	return application.ClassroomInput{
		Name:      strings.TrimSpace(r.Name),
		Location:  strings.TrimSpace(r.Location),
		Capacity:  r.Capacity,
		Level:     level,
		Equipment: r.Equipment,
	}
}

type classroomResponse struct {
	Classroom classroomDTO `json:"classroom"`
}

type listClassroomsResponse struct {
	Classrooms []classroomDTO `json:"classrooms"`
}

type levelsResponse struct {
	Levels []int `json:"levels"`
}

type classroomDTO struct {
	ID                 string   `json:"id"`
	Name               string   `json:"name"`
	Capacity           int      `json:"capacity"`
	Location           string   `json:"location"`
	Level              int      `json:"level"`
	Equipment          []string `json:"equipment"`
	AvailabilityStatus string   `json:"availability_status"`
	CreatedAt          string   `json:"created_at"`
}

func toClassroomDTO(view application.ClassroomView) classroomDTO {
	equipment := view.Equipment
	if equipment == nil {
		equipment = []string{}
	}
	return classroomDTO{
		ID:                 view.ID,
		Name:               view.Name,
		Capacity:           view.Capacity,
		Location:           view.Location,
		Level:              view.Level,
		Equipment:          equipment,
		AvailabilityStatus: string(view.Availability),
		CreatedAt:          view.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func toClassroomDTOs(views []application.ClassroomView) []classroomDTO {
	out := make([]classroomDTO, 0, len(views))
	for _, view := range views {
		out = append(out, toClassroomDTO(view))
	}
	return out
}
