package event

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/carepath/carepath/internal/platform/auth"
	"github.com/carepath/carepath/internal/platform/errs"
	"github.com/carepath/carepath/pkg/pagination"
)

// Handler exposes the event log for operational inspection. Events
// themselves are never mutated through the API.
type Handler struct {
	queue *Queue
}

func NewHandler(queue *Queue) *Handler {
	return &Handler{queue: queue}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/admin", auth.RequireRole("admin"))
	g.GET("/events", h.List)
}

func (h *Handler) List(c echo.Context) error {
	p := pagination.FromContext(c)
	events, total, err := h.queue.List(c.Request().Context(), p.Limit, p.Offset)
	if err != nil {
		return errs.HTTPError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(events, total, p.Limit, p.Offset))
}
