package users

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/donr-app/go-services/internal/apperr"
	"github.com/donr-app/go-services/internal/geo"
	"github.com/donr-app/go-services/internal/httpapi"
	"github.com/donr-app/go-services/internal/models"
	"github.com/donr-app/go-services/pkg/middleware"
)

// Handler exposes profile management over HTTP.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

// Register mounts the user routes on r. Assumes AuthMiddleware runs on the
// group; a profile is required nowhere here since creation is the entry
// point.
func (h *Handler) Register(r gin.IRouter) {
	r.POST("/users", h.create)
	r.GET("/users/me", h.me)
	r.PUT("/users/me", h.update)
}

type profileRequest struct {
	Name     string   `json:"name"`
	Role     string   `json:"role"`
	Lat      *float64 `json:"lat"`
	Lng      *float64 `json:"lng"`
	FCMToken string   `json:"fcmToken"`
}

func (h *Handler) create(c *gin.Context) {
	var req profileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpapi.Fail(c, apperr.Validation("Invalid request body"))
		return
	}
	in := CreateProfileInput{
		Name:     req.Name,
		Role:     models.Role(req.Role),
		FCMToken: req.FCMToken,
	}
	if req.Lat != nil && req.Lng != nil {
		in.Location = &geo.Coordinates{Lat: *req.Lat, Lng: *req.Lng}
	}
	u, err := h.svc.CreateProfile(c.Request.Context(), middleware.UID(c), middleware.Email(c), in)
	if err != nil {
		httpapi.Fail(c, err)
		return
	}
	httpapi.OK(c, http.StatusCreated, u)
}

func (h *Handler) me(c *gin.Context) {
	u, err := h.svc.Get(c.Request.Context(), middleware.UID(c))
	if err != nil {
		httpapi.Fail(c, err)
		return
	}
	httpapi.OK(c, http.StatusOK, u)
}

type updateRequest struct {
	Name     *string  `json:"name"`
	Role     *string  `json:"role"`
	Lat      *float64 `json:"lat"`
	Lng      *float64 `json:"lng"`
	FCMToken *string  `json:"fcmToken"`
}

func (h *Handler) update(c *gin.Context) {
	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpapi.Fail(c, apperr.Validation("Invalid request body"))
		return
	}
	if req.Role != nil {
		httpapi.Fail(c, apperr.Validation("Role cannot be changed"))
		return
	}
	upd := ProfileUpdate{Name: req.Name, FCMToken: req.FCMToken}
	if req.Lat != nil && req.Lng != nil {
		upd.Location = &geo.Coordinates{Lat: *req.Lat, Lng: *req.Lng}
	}
	u, err := h.svc.UpdateProfile(c.Request.Context(), middleware.UID(c), upd)
	if err != nil {
		httpapi.Fail(c, err)
		return
	}
	httpapi.OK(c, http.StatusOK, u)
}
