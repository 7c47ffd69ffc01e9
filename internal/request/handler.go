package request

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/donr-app/go-services/internal/apperr"
	"github.com/donr-app/go-services/internal/geo"
	"github.com/donr-app/go-services/internal/httpapi"
	"github.com/donr-app/go-services/internal/models"
	"github.com/donr-app/go-services/pkg/middleware"
)

// Handler exposes food requests over HTTP.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

func (h *Handler) Register(r gin.IRouter, roles middleware.RoleResolver) {
	r.POST("/requests", middleware.RequireRole(roles, models.RoleAcceptor), h.create)
	r.GET("/requests", h.list)
	r.PUT("/requests/:id/status", middleware.RequireRole(roles, models.RoleDistributor), h.updateStatus)
}

type createRequest struct {
	FoodType string   `json:"foodType"`
	Quantity string   `json:"quantity"`
	Urgency  string   `json:"urgency"`
	Lat      *float64 `json:"lat"`
	Lng      *float64 `json:"lng"`
}

func (h *Handler) create(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpapi.Fail(c, apperr.Validation("Invalid request body"))
		return
	}
	in := CreateInput{
		FoodType: req.FoodType,
		Quantity: req.Quantity,
		Urgency:  Urgency(req.Urgency),
	}
	if req.Lat != nil && req.Lng != nil {
		in.Location = &geo.Coordinates{Lat: *req.Lat, Lng: *req.Lng}
	}
	out, err := h.svc.Create(c.Request.Context(), middleware.UID(c), in)
	if err != nil {
		httpapi.Fail(c, err)
		return
	}
	httpapi.OK(c, http.StatusCreated, out)
}

func (h *Handler) list(c *gin.Context) {
	out, err := h.svc.List(c.Request.Context())
	if err != nil {
		httpapi.Fail(c, err)
		return
	}
	httpapi.OK(c, http.StatusOK, out)
}

type statusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) updateStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpapi.Fail(c, apperr.Validation("Invalid request body"))
		return
	}
	out, err := h.svc.UpdateStatus(c.Request.Context(), c.Param("id"), Status(req.Status))
	if err != nil {
		httpapi.Fail(c, err)
		return
	}
	httpapi.OK(c, http.StatusOK, out)
}
