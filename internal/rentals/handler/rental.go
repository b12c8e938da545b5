package handler

import (
	"net/http"

	"github.com/julienschmidt/httprouter"

	"carrental/internal/rentals/service"
	httputil "carrental/pkg/http"
	"carrental/pkg/logger"
	"carrental/pkg/model"
)

type RentalHandler struct {
	service service.RentalService
	log     *logger.Logger
}

func NewRentalHandler(service service.RentalService, log *logger.Logger) *RentalHandler {
	return &RentalHandler{
		service: service,
		log:     log,
	}
}

func (h *RentalHandler) Rent(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	credential, err := httputil.RequireBearerToken(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req model.RentRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.service.CreateRental(r.Context(), credential, ps.ByName("id"), &req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := httputil.WriteSuccess(w, result); err != nil {
		h.log.Error("failed to write success response", "handler", "Rent", "operation", "WriteSuccess", "error", err)
	}
}

func (h *RentalHandler) CheckAvailability(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req model.AvailabilityRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.service.CheckAvailability(r.Context(), ps.ByName("id"), &req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := httputil.WriteSuccess(w, result); err != nil {
		h.log.Error("failed to write success response", "handler", "CheckAvailability", "operation", "WriteSuccess", "error", err)
	}
}

func (h *RentalHandler) GetAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	credential, _ := httputil.BearerToken(r)

	rentals, err := h.service.ListAllRentals(r.Context(), credential)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := httputil.WriteSuccess(w, rentals); err != nil {
		h.log.Error("failed to write success response", "handler", "GetAll", "operation", "WriteSuccess", "error", err)
	}
}

func (h *RentalHandler) GetMine(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	credential, _ := httputil.BearerToken(r)

	rentals, err := h.service.ListUserRentals(r.Context(), credential)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := httputil.WriteSuccess(w, rentals); err != nil {
		h.log.Error("failed to write success response", "handler", "GetMine", "operation", "WriteSuccess", "error", err)
	}
}

func (h *RentalHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	credential, _ := httputil.BearerToken(r)

	rental, err := h.service.GetRental(r.Context(), credential, ps.ByName("id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := httputil.WriteSuccess(w, rental); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *RentalHandler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	credential, err := httputil.RequireBearerToken(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var update model.RentalUpdate
	if err := httputil.DecodeJSON(r, &update); err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.service.UpdateRental(r.Context(), credential, ps.ByName("id"), &update)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := httputil.WriteSuccess(w, result); err != nil {
		h.log.Error("failed to write success response", "handler", "Update", "operation", "WriteSuccess", "error", err)
	}
}

func (h *RentalHandler) Cancel(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	credential, _ := httputil.BearerToken(r)

	result, err := h.service.CancelRental(r.Context(), credential, ps.ByName("id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := httputil.WriteSuccess(w, result); err != nil {
		h.log.Error("failed to write success response", "handler", "Cancel", "operation", "WriteSuccess", "error", err)
	}
}

func (h *RentalHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/cars/id/:id/rent", h.Rent)
	router.POST("/api/v1/cars/id/:id/availability", h.CheckAvailability)
	router.GET("/api/v1/rentals", h.GetAll)
	router.GET("/api/v1/rentals/user", h.GetMine)
	router.GET("/api/v1/rentals/id/:id", h.GetByID)
	router.PUT("/api/v1/rentals/id/:id", h.Update)
	router.DELETE("/api/v1/rentals/id/:id", h.Cancel)
}
