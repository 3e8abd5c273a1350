package finding

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/carepath/carepath/internal/platform/auth"
	"github.com/carepath/carepath/internal/platform/errs"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("", auth.RequireRole("doctor", "nurse"))
	g.GET("/examinations/:id/findings", h.List)
	g.PUT("/examinations/:id/findings", h.Reconcile)
}

func (h *Handler) List(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid examination id")
	}
	findings, err := h.svc.List(c.Request().Context(), id)
	if err != nil {
		return errs.HTTPError(err)
	}
	return c.JSON(http.StatusOK, findings)
}

func (h *Handler) Reconcile(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid examination id")
	}
	var body struct {
		Findings []SubmittedFinding `json:"findings"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	findings, err := h.svc.Reconcile(c.Request().Context(), id, body.Findings)
	if err != nil {
		return errs.HTTPError(err)
	}
	return c.JSON(http.StatusOK, findings)
}
