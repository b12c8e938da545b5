package handler

import (
	"net/http"

	"github.com/julienschmidt/httprouter"

	"carrental/internal/reviews/service"
	httputil "carrental/pkg/http"
	"carrental/pkg/logger"
	"carrental/pkg/model"
)

type ReviewHandler struct {
	service service.ReviewService
	log     *logger.Logger
}

func NewReviewHandler(service service.ReviewService, log *logger.Logger) *ReviewHandler {
	return &ReviewHandler{
		service: service,
		log:     log,
	}
}

func (h *ReviewHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	credential, err := httputil.RequireBearerToken(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req model.ReviewCreate
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	review, err := h.service.Create(r.Context(), credential, &req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := httputil.WriteCreated(w, review); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *ReviewHandler) GetAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	credential, _ := httputil.BearerToken(r)

	page, limit, err := httputil.ExtractPage(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.service.ListAll(r.Context(), credential, page, limit)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := httputil.WriteSuccess(w, result); err != nil {
		h.log.Error("failed to write success response", "handler", "GetAll", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ReviewHandler) GetByCar(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	page, limit, err := httputil.ExtractPage(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.service.ListByCar(r.Context(), ps.ByName("carId"), page, limit)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := httputil.WriteSuccess(w, result); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByCar", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ReviewHandler) GetMine(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	credential, _ := httputil.BearerToken(r)

	reviews, err := h.service.ListMine(r.Context(), credential)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := httputil.WriteSuccess(w, reviews); err != nil {
		h.log.Error("failed to write success response", "handler", "GetMine", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ReviewHandler) Eligibility(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	credential, _ := httputil.BearerToken(r)

	result, err := h.service.Eligibility(r.Context(), credential, ps.ByName("carId"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := httputil.WriteSuccess(w, result); err != nil {
		h.log.Error("failed to write success response", "handler", "Eligibility", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ReviewHandler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	credential, err := httputil.RequireBearerToken(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var update model.ReviewUpdate
	if err := httputil.DecodeJSON(r, &update); err != nil {
		httputil.WriteError(w, err)
		return
	}

	review, err := h.service.Update(r.Context(), credential, ps.ByName("id"), &update)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := httputil.WriteSuccess(w, review); err != nil {
		h.log.Error("failed to write success response", "handler", "Update", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ReviewHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	credential, _ := httputil.BearerToken(r)

	if err := h.service.Delete(r.Context(), credential, ps.ByName("id")); err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := httputil.WriteMessage(w, "Review deleted successfully"); err != nil {
		h.log.Error("failed to write success response", "handler", "Delete", "operation", "WriteMessage", "error", err)
	}
}

func (h *ReviewHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/reviews", h.Create)
	router.GET("/api/v1/reviews", h.GetAll)
	router.GET("/api/v1/reviews/car/:carId", h.GetByCar)
	router.GET("/api/v1/reviews/user", h.GetMine)
	router.GET("/api/v1/reviews/eligibility/:carId", h.Eligibility)
	router.PUT("/api/v1/reviews/id/:id", h.Update)
	router.DELETE("/api/v1/reviews/id/:id", h.Delete)
}
