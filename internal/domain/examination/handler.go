package examination

import (
	"net/http"
	"strconv"

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
	api.GET("/examination-catalog", h.ListCatalog)

	g := api.Group("", auth.RequireRole("doctor", "nurse"))
	g.GET("/patients/:patient_id/encounters/:encounter_id/examinations", h.Plan)
	g.PUT("/patients/:patient_id/encounters/:encounter_id/examinations", h.Reconcile)
	g.POST("/examinations/:id/complete", h.Complete)
	g.POST("/examinations/:id/skip", h.Skip)
}

func (h *Handler) ListCatalog(c echo.Context) error {
	entries, err := h.svc.Catalog(c.Request().Context())
	if err != nil {
		return errs.HTTPError(err)
	}
	return c.JSON(http.StatusOK, entries)
}

// Plan renders the merged recommended + persisted view. The patient
// and encounter snapshots arrive as query parameters because patient
// record storage lives outside this service.
func (h *Handler) Plan(c echo.Context) error {
	patientID, encounterID, err := pathIDs(c)
	if err != nil {
		return err
	}
	age, err := strconv.Atoi(c.QueryParam("age_years"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid age_years")
	}
	patient := Patient{Gender: c.QueryParam("gender"), AgeYears: age}
	encounter := Encounter{Reason: c.QueryParam("reason")}

	planned, err := h.svc.Plan(c.Request().Context(), patientID, encounterID, patient, encounter)
	if err != nil {
		return errs.HTTPError(err)
	}
	return c.JSON(http.StatusOK, planned)
}

func (h *Handler) Reconcile(c echo.Context) error {
	patientID, encounterID, err := pathIDs(c)
	if err != nil {
		return err
	}
	var sel Selection
	if err := c.Bind(&sel); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	ctx := c.Request().Context()
	if len(sel.Orders) > 0 && !auth.HasRole(ctx, "doctor") {
		return errs.HTTPError(errs.Authorizationf("only doctors may submit examination orders"))
	}
	if err := h.svc.Reconcile(ctx, patientID, encounterID, sel); err != nil {
		return errs.HTTPError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) Complete(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid examination id")
	}
	if err := h.svc.MarkCompleted(c.Request().Context(), id); err != nil {
		return errs.HTTPError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) Skip(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid examination id")
	}
	if err := h.svc.MarkSkipped(c.Request().Context(), id); err != nil {
		return errs.HTTPError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func pathIDs(c echo.Context) (uuid.UUID, uuid.UUID, error) {
	patientID, err := uuid.Parse(c.Param("patient_id"))
	if err != nil {
		return uuid.Nil, uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid patient_id")
	}
	encounterID, err := uuid.Parse(c.Param("encounter_id"))
	if err != nil {
		return uuid.Nil, uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid encounter_id")
	}
	return patientID, encounterID, nil
}
