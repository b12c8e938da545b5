package handler

import (
	"net/http"

	"github.com/julienschmidt/httprouter"

	"carrental/internal/cars/service"
	httputil "carrental/pkg/http"
	"carrental/pkg/logger"
	"carrental/pkg/model"
)

type CarHandler struct {
	service service.CarService
	log     *logger.Logger
}

func NewCarHandler(service service.CarService, log *logger.Logger) *CarHandler {
	return &CarHandler{
		service: service,
		log:     log,
	}
}

func (h *CarHandler) GetAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	cars, err := h.service.List(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := httputil.WriteSuccess(w, cars); err != nil {
		h.log.Error("failed to write success response", "handler", "GetAll", "operation", "WriteSuccess", "error", err)
	}
}

func (h *CarHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	car, err := h.service.ResolveCar(r.Context(), ps.ByName("id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := httputil.WriteSuccess(w, car); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *CarHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	credential, err := httputil.RequireBearerToken(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var car model.Car
	if err := httputil.DecodeJSON(r, &car); err != nil {
		httputil.WriteError(w, err)
		return
	}

	created, err := h.service.Create(r.Context(), credential, &car)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := httputil.WriteCreated(w, created); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *CarHandler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	credential, err := httputil.RequireBearerToken(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var update model.CarUpdate
	if err := httputil.DecodeJSON(r, &update); err != nil {
		httputil.WriteError(w, err)
		return
	}

	car, err := h.service.Update(r.Context(), credential, ps.ByName("id"), &update)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := httputil.WriteSuccess(w, car); err != nil {
		h.log.Error("failed to write success response", "handler", "Update", "operation", "WriteSuccess", "error", err)
	}
}

func (h *CarHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	credential, _ := httputil.BearerToken(r)

	if err := h.service.Delete(r.Context(), credential, ps.ByName("id")); err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := httputil.WriteMessage(w, "Item deleted successfully"); err != nil {
		h.log.Error("failed to write success response", "handler", "Delete", "operation", "WriteMessage", "error", err)
	}
}

func (h *CarHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/cars", h.GetAll)
	router.POST("/api/v1/cars", h.Create)
	router.GET("/api/v1/cars/id/:id", h.GetByID)
	router.PUT("/api/v1/cars/id/:id", h.Update)
	router.DELETE("/api/v1/cars/id/:id", h.Delete)
}
