package handler

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/donr-app/go-services/internal/apperr"
	"github.com/donr-app/go-services/internal/donation/service"
	"github.com/donr-app/go-services/internal/geo"
	"github.com/donr-app/go-services/internal/httpapi"
	"github.com/donr-app/go-services/internal/models"
	"github.com/donr-app/go-services/internal/storage"
	"github.com/donr-app/go-services/pkg/middleware"
)

const maxPhotoBytes = 10 << 20

// Handler exposes the donation lifecycle over HTTP.
type Handler struct {
	svc    *service.Service
	users  service.UserSource
	photos storage.PhotoStore
}

func NewHandler(svc *service.Service, users service.UserSource, photos storage.PhotoStore) *Handler {
	return &Handler{svc: svc, users: users, photos: photos}
}

// Register mounts the donation routes on r. All routes assume
// AuthMiddleware has already run on the group.
func (h *Handler) Register(r gin.IRouter, roles middleware.RoleResolver) {
	r.POST("/donations", middleware.RequireRole(roles, models.RoleDonator), h.create)
	r.GET("/donations", h.listNearby)
	r.GET("/donations/:id", h.get)
	r.PUT("/donations/:id/claim", middleware.RequireRole(roles, models.RoleDistributor), h.claim)
	r.PUT("/donations/:id/distribute", middleware.RequireRole(roles, models.RoleDistributor), h.distribute)
	if h.photos != nil {
		r.POST("/donations/:id/photo", middleware.RequireRole(roles, models.RoleDonator), h.uploadPhoto)
		r.GET("/donations/:id/photo", h.photoURL)
	}
}

type createRequest struct {
	FoodType       string    `json:"foodType"`
	Quantity       string    `json:"quantity"`
	ExpirationDate time.Time `json:"expirationDate"`
	Address        string    `json:"address"`
	Lat            *float64  `json:"lat"`
	Lng            *float64  `json:"lng"`
}

func (h *Handler) create(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpapi.Fail(c, apperr.Validation("Invalid request body"))
		return
	}
	in := service.CreateInput{
		FoodType:       req.FoodType,
		Quantity:       req.Quantity,
		ExpirationDate: req.ExpirationDate,
		Address:        req.Address,
	}
	if req.Lat != nil && req.Lng != nil {
		in.Location = &geo.Coordinates{Lat: *req.Lat, Lng: *req.Lng}
	}
	d, err := h.svc.Create(c.Request.Context(), middleware.UID(c), in)
	if err != nil {
		httpapi.Fail(c, err)
		return
	}
	httpapi.OK(c, http.StatusCreated, d)
}

func (h *Handler) get(c *gin.Context) {
	d, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		httpapi.Fail(c, err)
		return
	}
	httpapi.OK(c, http.StatusOK, d)
}

// listNearby ranks available, unexpired donations by distance from the
// caller's reference point: explicit lat/lng query params first, then the
// caller's stored home location.
func (h *Handler) listNearby(c *gin.Context) {
	ctx := c.Request.Context()

	lat, latErr := strconv.ParseFloat(c.Query("lat"), 64)
	lng, lngErr := strconv.ParseFloat(c.Query("lng"), 64)
	if latErr != nil || lngErr != nil {
		u, err := h.users.GetByID(ctx, middleware.UID(c))
		if err != nil {
			httpapi.Fail(c, apperr.Upstream(err, "load profile"))
			return
		}
		if u == nil || u.Location == nil || !u.Location.Valid() {
			httpapi.Fail(c, apperr.Validation("Location required. Provide lat/lng or set user location."))
			return
		}
		lat, lng = u.Location.Lat, u.Location.Lng
	}

	radius, _ := strconv.ParseFloat(c.Query("radius"), 64)
	matches, err := h.svc.Nearby(ctx, lat, lng, radius)
	if err != nil {
		httpapi.Fail(c, err)
		return
	}
	httpapi.OK(c, http.StatusOK, matches)
}

func (h *Handler) claim(c *gin.Context) {
	d, err := h.svc.Claim(c.Request.Context(), middleware.UID(c), c.Param("id"))
	if err != nil {
		httpapi.Fail(c, err)
		return
	}
	httpapi.OK(c, http.StatusOK, d)
}

func (h *Handler) distribute(c *gin.Context) {
	d, err := h.svc.Distribute(c.Request.Context(), middleware.UID(c), c.Param("id"))
	if err != nil {
		httpapi.Fail(c, err)
		return
	}
	httpapi.OK(c, http.StatusOK, d)
}

func (h *Handler) uploadPhoto(c *gin.Context) {
	id := c.Param("id")
	// Ownership first: the storage key is derived from the donation id, so
	// an upload must not reach the store until the caller is known to own
	// the donation.
	if err := h.svc.AuthorizePhoto(c.Request.Context(), middleware.UID(c), id); err != nil {
		httpapi.Fail(c, err)
		return
	}
	file, err := c.FormFile("photo")
	if err != nil {
		httpapi.Fail(c, apperr.Validation("Photo file required"))
		return
	}
	if file.Size > maxPhotoBytes {
		httpapi.Fail(c, apperr.Validation("Photo exceeds 10MB limit"))
		return
	}
	src, err := file.Open()
	if err != nil {
		httpapi.Fail(c, apperr.Upstream(err, "open upload"))
		return
	}
	defer src.Close()

	key := fmt.Sprintf("donations/%s%s", id, filepath.Ext(file.Filename))
	ctype := file.Header.Get("Content-Type")
	if err := h.photos.Upload(c.Request.Context(), key, src, file.Size, ctype); err != nil {
		httpapi.Fail(c, apperr.Upstream(err, "store photo"))
		return
	}
	if err := h.svc.AttachPhoto(c.Request.Context(), middleware.UID(c), id, key); err != nil {
		httpapi.Fail(c, err)
		return
	}
	httpapi.OK(c, http.StatusOK, gin.H{"photoKey": key})
}

func (h *Handler) photoURL(c *gin.Context) {
	d, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		httpapi.Fail(c, err)
		return
	}
	if d.PhotoKey == "" {
		httpapi.Fail(c, apperr.NotFound("Donation has no photo"))
		return
	}
	u, err := h.photos.PresignedURL(c.Request.Context(), d.PhotoKey, 15*time.Minute)
	if err != nil {
		httpapi.Fail(c, apperr.Upstream(err, "presign photo"))
		return
	}
	httpapi.OK(c, http.StatusOK, gin.H{"url": u})
}
