package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"clinicflow/internal/appointments/service"
	apperrors "clinicflow/pkg/errors"
	httputil "clinicflow/pkg/http"
	"clinicflow/pkg/logger"
	"clinicflow/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type AppointmentHandler struct {
	bookings   service.BookingService
	bulk       service.BulkService
	resolution service.ResolutionService
	log        *logger.Logger
}

func NewAppointmentHandler(
	bookings service.BookingService,
	bulk service.BulkService,
	resolution service.ResolutionService,
	log *logger.Logger,
) *AppointmentHandler {
	return &AppointmentHandler{
		bookings:   bookings,
		bulk:       bulk,
		resolution: resolution,
		log:        log,
	}
}

func (h *AppointmentHandler) Book(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var appointment model.Appointment
	if err := httputil.DecodeJSON(r, &appointment); err != nil {
		h.writeError(w, "Book", err)
		return
	}

	if err := h.bookings.Book(r.Context(), &appointment); err != nil {
		h.writeError(w, "Book", err)
		return
	}

	if err := httputil.WriteCreated(w, appointment); err != nil {
		h.log.Error("failed to write created response", "handler", "Book", "operation", "WriteCreated", "error", err)
	}
}

func (h *AppointmentHandler) List(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	filter := model.AppointmentFilter{
		Query:      httputil.OptionalQuery(r, "q"),
		Status:     model.Status(httputil.OptionalQuery(r, "status")),
		ProviderID: httputil.OptionalQuery(r, "provider_id"),
		Type:       httputil.OptionalQuery(r, "type"),
		Date:       httputil.OptionalQuery(r, "date"),
	}

	appointments, err := h.bookings.List(r.Context(), filter)
	if err != nil {
		h.writeError(w, "List", err)
		return
	}

	if err := httputil.WriteList(w, appointments, len(appointments)); err != nil {
		h.log.Error("failed to write list response", "handler", "List", "operation", "WriteList", "error", err)
	}
}

func (h *AppointmentHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	appointment, err := h.bookings.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}
	h.writeSuccess(w, "GetByID", appointment)
}

func (h *AppointmentHandler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var updates model.AppointmentUpdate
	if err := httputil.DecodeJSON(r, &updates); err != nil {
		h.writeError(w, "Update", err)
		return
	}

	appointment, err := h.bookings.Update(r.Context(), ps.ByName("id"), &updates)
	if err != nil {
		h.writeError(w, "Update", err)
		return
	}
	h.writeSuccess(w, "Update", appointment)
}

func (h *AppointmentHandler) Move(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req model.MoveRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "Move", err)
		return
	}

	appointment, err := h.bookings.Move(r.Context(), ps.ByName("id"), &req)
	if err != nil {
		h.writeError(w, "Move", err)
		return
	}
	h.writeSuccess(w, "Move", appointment)
}

func (h *AppointmentHandler) UpdateStatus(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var change model.StatusChange
	if err := httputil.DecodeJSON(r, &change); err != nil {
		h.writeError(w, "UpdateStatus", err)
		return
	}

	appointment, err := h.bookings.UpdateStatus(r.Context(), ps.ByName("id"), change.Status)
	if err != nil {
		h.writeError(w, "UpdateStatus", err)
		return
	}
	h.writeSuccess(w, "UpdateStatus", appointment)
}

func (h *AppointmentHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := h.bookings.Delete(r.Context(), ps.ByName("id")); err != nil {
		h.writeError(w, "Delete", err)
		return
	}
	httputil.WriteNoContent(w)
}

func (h *AppointmentHandler) BulkStatus(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.BulkStatusRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "BulkStatus", err)
		return
	}

	result, err := h.bulk.ApplyStatus(r.Context(), req.IDs, req.Status)
	if err != nil {
		h.writeError(w, "BulkStatus", err)
		return
	}
	h.writeSuccess(w, "BulkStatus", result)
}

func (h *AppointmentHandler) BulkReminders(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.BulkIDsRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "BulkReminders", err)
		return
	}

	result, err := h.bulk.SendReminders(r.Context(), req.IDs)
	if err != nil {
		h.writeError(w, "BulkReminders", err)
		return
	}
	h.writeSuccess(w, "BulkReminders", result)
}

func (h *AppointmentHandler) BulkDelete(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.BulkIDsRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "BulkDelete", err)
		return
	}

	result, err := h.bulk.Delete(r.Context(), req.IDs)
	if err != nil {
		h.writeError(w, "BulkDelete", err)
		return
	}
	h.writeSuccess(w, "BulkDelete", result)
}

func (h *AppointmentHandler) DaySchedule(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	date, err := httputil.RequiredQuery(r, "date")
	if err != nil {
		h.writeError(w, "DaySchedule", err)
		return
	}

	schedule, err := h.bookings.DaySchedule(r.Context(), date, httputil.OptionalQuery(r, "provider_id"))
	if err != nil {
		h.writeError(w, "DaySchedule", err)
		return
	}
	h.writeSuccess(w, "DaySchedule", schedule)
}

func (h *AppointmentHandler) Conflicts(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	date, err := httputil.RequiredQuery(r, "date")
	if err != nil {
		h.writeError(w, "Conflicts", err)
		return
	}

	conflicts, err := h.resolution.DetectConflicts(r.Context(), date, httputil.OptionalQuery(r, "provider_id"))
	if err != nil {
		h.writeError(w, "Conflicts", err)
		return
	}

	if err := httputil.WriteList(w, conflicts, len(conflicts)); err != nil {
		h.log.Error("failed to write list response", "handler", "Conflicts", "operation", "WriteList", "error", err)
	}
}

// Resolve proposes moves for the day's conflicts; ?apply=true also commits
// them through the booking path.
func (h *AppointmentHandler) Resolve(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	date, err := httputil.RequiredQuery(r, "date")
	if err != nil {
		h.writeError(w, "Resolve", err)
		return
	}

	apply := false
	if applyStr := httputil.OptionalQuery(r, "apply"); applyStr != "" {
		apply, err = strconv.ParseBool(applyStr)
		if err != nil {
			h.writeError(w, "Resolve", apperrors.InvalidInput(fmt.Sprintf("invalid apply parameter: %s", applyStr)))
			return
		}
	}

	report, err := h.resolution.ResolveConflicts(r.Context(), date, httputil.OptionalQuery(r, "provider_id"), apply)
	if err != nil {
		h.writeError(w, "Resolve", err)
		return
	}
	h.writeSuccess(w, "Resolve", report)
}

func (h *AppointmentHandler) writeSuccess(w http.ResponseWriter, handler string, data any) {
	if err := httputil.WriteSuccess(w, data); err != nil {
		h.log.Error("failed to write success response", "handler", handler, "operation", "WriteSuccess", "error", err)
	}
}

func (h *AppointmentHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *AppointmentHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/appointments", h.Book)
	router.GET("/api/v1/appointments", h.List)
	router.GET("/api/v1/appointments/id/:id", h.GetByID)
	router.PATCH("/api/v1/appointments/id/:id", h.Update)
	router.DELETE("/api/v1/appointments/id/:id", h.Delete)
	router.PATCH("/api/v1/appointments/id/:id/move", h.Move)
	router.PATCH("/api/v1/appointments/id/:id/status", h.UpdateStatus)

	router.POST("/api/v1/appointments/bulk/status", h.BulkStatus)
	router.POST("/api/v1/appointments/bulk/reminders", h.BulkReminders)
	router.POST("/api/v1/appointments/bulk/delete", h.BulkDelete)

	router.GET("/api/v1/schedule/slots", h.DaySchedule)
	router.GET("/api/v1/schedule/conflicts", h.Conflicts)
	router.POST("/api/v1/schedule/resolve", h.Resolve)
}
