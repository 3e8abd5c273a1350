package workflow

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
	g := api.Group("", auth.RequireRole("doctor", "nurse", "registrar"))
	g.GET("/workflows/:workflow/:instance_id", h.GetProgress)
	g.POST("/workflows/:workflow/:instance_id/steps", h.SubmitStep)
	g.POST("/workflows/:workflow/:instance_id/finalize", h.Finalize)
}

func (h *Handler) definition(c echo.Context) (*Definition, error) {
	def, ok := Definitions()[c.Param("workflow")]
	if !ok {
		return nil, echo.NewHTTPError(http.StatusNotFound, "unknown workflow")
	}
	return def, nil
}

func (h *Handler) GetProgress(c echo.Context) error {
	def, err := h.definition(c)
	if err != nil {
		return err
	}
	instanceID, err := uuid.Parse(c.Param("instance_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid instance_id")
	}
	progress, err := h.svc.Progress(c.Request().Context(), def, instanceID)
	if err != nil {
		return errs.HTTPError(err)
	}
	return c.JSON(http.StatusOK, progress)
}

func (h *Handler) SubmitStep(c echo.Context) error {
	def, err := h.definition(c)
	if err != nil {
		return err
	}
	instanceID, err := uuid.Parse(c.Param("instance_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid instance_id")
	}
	var body struct {
		Step string `json:"step"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	ctx := c.Request().Context()
	progress, err := h.svc.SubmitStep(ctx, def, instanceID, body.Step, auth.UserIDFromContext(ctx))
	if err != nil {
		return errs.HTTPError(err)
	}
	return c.JSON(http.StatusOK, progress)
}

func (h *Handler) Finalize(c echo.Context) error {
	def, err := h.definition(c)
	if err != nil {
		return err
	}
	instanceID, err := uuid.Parse(c.Param("instance_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid instance_id")
	}
	ctx := c.Request().Context()
	if err := h.svc.Finalize(ctx, def, instanceID, auth.UserIDFromContext(ctx)); err != nil {
		return errs.HTTPError(err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "finalized"})
}
