package handler

import (
	"net/http"

	"github.com/julienschmidt/httprouter"

	"carrental/internal/users/service"
	httputil "carrental/pkg/http"
	"carrental/pkg/logger"
	"carrental/pkg/model"
)

type UserHandler struct {
	service service.UserService
	log     *logger.Logger
}

func NewUserHandler(service service.UserService, log *logger.Logger) *UserHandler {
	return &UserHandler{
		service: service,
		log:     log,
	}
}

func (h *UserHandler) GetAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	credential, _ := httputil.BearerToken(r)

	users, err := h.service.List(r.Context(), credential)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := httputil.WriteSuccess(w, users); err != nil {
		h.log.Error("failed to write success response", "handler", "GetAll", "operation", "WriteSuccess", "error", err)
	}
}

func (h *UserHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	credential, _ := httputil.BearerToken(r)

	user, err := h.service.Get(r.Context(), credential, ps.ByName("id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := httputil.WriteSuccess(w, user); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	credential, err := httputil.RequireBearerToken(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req model.UserCreate
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	user, err := h.service.Create(r.Context(), credential, &req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := httputil.WriteCreated(w, user); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	credential, err := httputil.RequireBearerToken(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req model.UserUpdate
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.service.Update(r.Context(), credential, ps.ByName("id"), &req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := httputil.WriteSuccess(w, result); err != nil {
		h.log.Error("failed to write success response", "handler", "Update", "operation", "WriteSuccess", "error", err)
	}
}

func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	credential, _ := httputil.BearerToken(r)

	if err := h.service.Delete(r.Context(), credential, ps.ByName("id")); err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := httputil.WriteMessage(w, "User deleted successfully"); err != nil {
		h.log.Error("failed to write success response", "handler", "Delete", "operation", "WriteMessage", "error", err)
	}
}

func (h *UserHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/users", h.GetAll)
	router.POST("/api/v1/users", h.Create)
	router.GET("/api/v1/users/id/:id", h.GetByID)
	router.PUT("/api/v1/users/id/:id", h.Update)
	router.DELETE("/api/v1/users/id/:id", h.Delete)
}
