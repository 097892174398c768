package sessions

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/classpulse/backend/internal/poll"
	"github.com/classpulse/backend/pkg/response"
)

// Handler exposes the read-only HTTP surface: session status lookup and
// round history. All mutation happens over the WebSocket connection.
type Handler struct {
	ctrl *poll.Controller
}

// NewHandler creates a sessions handler.
func NewHandler(ctrl *poll.Controller) *Handler {
	return &Handler{ctrl: ctrl}
}

// Get handles GET /sessions/:code — existence and state check, no side effects.
func (h *Handler) Get(c *gin.Context) {
	code := strings.ToUpper(strings.TrimSpace(c.Param("code")))
	snap, err := h.ctrl.Snapshot(code)
	if err != nil {
		fail(c, err)
		return
	}
	response.OK(c, snap)
}

// History handles GET /sessions/:code/history — completed round summaries,
// oldest first.
func (h *Handler) History(c *gin.Context) {
	code := strings.ToUpper(strings.TrimSpace(c.Param("code")))
	history, err := h.ctrl.History(code)
	if err != nil {
		fail(c, err)
		return
	}
	response.OK(c, gin.H{"history": history})
}

func fail(c *gin.Context, err error) {
	if errors.Is(err, poll.ErrSessionNotFound) {
		response.Fail(c, http.StatusNotFound, poll.Code(err), err.Error())
		return
	}
	response.Internal(c, err.Error())
}
