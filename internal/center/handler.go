package center

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/donr-app/go-services/internal/apperr"
	"github.com/donr-app/go-services/internal/geo"
	"github.com/donr-app/go-services/internal/httpapi"
	"github.com/donr-app/go-services/internal/models"
	"github.com/donr-app/go-services/pkg/middleware"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

func (h *Handler) Register(r gin.IRouter, roles middleware.RoleResolver) {
	r.GET("/centers", h.list)
	r.POST("/centers", middleware.RequireRole(roles, models.RoleDistributor), h.create)
}

type createRequest struct {
	Name    string   `json:"name"`
	Address string   `json:"address"`
	Lat     *float64 `json:"lat"`
	Lng     *float64 `json:"lng"`
}

func (h *Handler) create(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpapi.Fail(c, apperr.Validation("Invalid request body"))
		return
	}
	in := CreateInput{Name: req.Name, Address: req.Address}
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
