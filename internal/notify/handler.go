package notify

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/donr-app/go-services/internal/apperr"
	"github.com/donr-app/go-services/internal/httpapi"
	"github.com/donr-app/go-services/pkg/middleware"
)

// Handler exposes direct notification sending plus the caller's recent
// delivery log.
type Handler struct {
	dispatcher *Dispatcher
	log        *LogStore // optional
}

func NewHandler(d *Dispatcher, log *LogStore) *Handler {
	return &Handler{dispatcher: d, log: log}
}

func (h *Handler) Register(r gin.IRouter) {
	r.POST("/notifications/send", h.send)
	if h.log != nil {
		r.GET("/notifications", h.recent)
	}
}

type sendRequest struct {
	UserID string            `json:"userId"`
	Title  string            `json:"title"`
	Body   string            `json:"body"`
	Data   map[string]string `json:"data"`
}

func (h *Handler) send(c *gin.Context) {
	var req sendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpapi.Fail(c, apperr.Validation("Invalid request body"))
		return
	}
	if req.UserID == "" || req.Title == "" || req.Body == "" {
		httpapi.Fail(c, apperr.Validation("Missing required fields: userId, title, body"))
		return
	}
	msgID, err := h.dispatcher.Send(c.Request.Context(), req.UserID, req.Title, req.Body, req.Data)
	if err != nil {
		httpapi.Fail(c, err)
		return
	}
	httpapi.OK(c, http.StatusOK, gin.H{"messageId": msgID})
}

func (h *Handler) recent(c *gin.Context) {
	entries, err := h.log.RecentForUser(c.Request.Context(), middleware.UID(c), 50)
	if err != nil {
		httpapi.Fail(c, apperr.Upstream(err, "load notification log"))
		return
	}
	httpapi.OK(c, http.StatusOK, entries)
}
