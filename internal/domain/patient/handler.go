package patient

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/HutchE92/handover/internal/platform/apperr"
	"github.com/HutchE92/handover/internal/platform/auth"
	"github.com/HutchE92/handover/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	// Read endpoints – admin, doctor, nurse
	readGroup := api.Group("", auth.RequireRole(auth.RoleDoctor, auth.RoleNurse))
	readGroup.GET("/patients", h.ListPatients)
	readGroup.GET("/patients/:id", h.GetPatient)

	// Write endpoints – admin, nurse
	writeGroup := api.Group("", auth.RequireRole(auth.RoleNurse))
	writeGroup.POST("/patients", h.CreatePatient)
	writeGroup.PUT("/patients/:id", h.UpdatePatient)
	writeGroup.PATCH("/patients/:id", h.PatchPatient)
	writeGroup.DELETE("/patients/:id", h.DeletePatient)
}

// ParseID reads the :id path parameter. A malformed id cannot name a stored
// record, so it is reported as not found.
func ParseID(c echo.Context, param, resource string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusNotFound, resource+" not found")
	}
	return id, nil
}

type listResponse struct {
	Patients []*Patient `json:"patients"`
	Wards    []string   `json:"wards"`
	Total    int        `json:"total"`
}

func (h *Handler) ListPatients(c echo.Context) error {
	ctx := c.Request().Context()
	includeInactive, _ := strconv.ParseBool(c.QueryParam("include_inactive"))
	opts := ListOptions{
		IncludeInactive: includeInactive,
		Ward:            c.QueryParam("ward"),
		Query:           c.QueryParam("q"),
	}

	items, err := h.svc.List(ctx, opts)
	if err != nil {
		return apperr.HTTP(err, "failed to fetch patients")
	}
	wards, err := h.svc.Wards(ctx)
	if err != nil {
		return apperr.HTTP(err, "failed to fetch patients")
	}

	pg := pagination.FromContext(c)
	pagination.SetHeaders(c, pg, len(items))
	resp := listResponse{
		Patients: pagination.Apply(items, pg),
		Wards:    wards,
		Total:    len(items),
	}
	if resp.Patients == nil {
		resp.Patients = []*Patient{}
	}
	if resp.Wards == nil {
		resp.Wards = []string{}
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *Handler) CreatePatient(c echo.Context) error {
	var p Patient
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := h.svc.Create(c.Request().Context(), &p); err != nil {
		return apperr.HTTP(err, "failed to create patient")
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) GetPatient(c echo.Context) error {
	id, err := ParseID(c, "id", "patient")
	if err != nil {
		return err
	}
	p, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return apperr.HTTP(err, "failed to fetch patient")
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) UpdatePatient(c echo.Context) error {
	id, err := ParseID(c, "id", "patient")
	if err != nil {
		return err
	}
	var u Update
	if err := c.Bind(&u); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	p, err := h.svc.Update(c.Request().Context(), id, &u)
	if err != nil {
		return apperr.HTTP(err, "failed to update patient")
	}
	return c.JSON(http.StatusOK, p)
}

type patchRequest struct {
	Action string `json:"action"`
}

// PatchPatient carries lifecycle actions. Only "discharge" is defined.
func (h *Handler) PatchPatient(c echo.Context) error {
	id, err := ParseID(c, "id", "patient")
	if err != nil {
		return err
	}
	var req patchRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Action != "discharge" {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid action")
	}
	if _, err := h.svc.Discharge(c.Request().Context(), id); err != nil {
		return apperr.HTTP(err, "failed to update patient")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Patient discharged",
	})
}

func (h *Handler) DeletePatient(c echo.Context) error {
	id, err := ParseID(c, "id", "patient")
	if err != nil {
		return err
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return apperr.HTTP(err, "failed to delete patient")
	}
	return c.NoContent(http.StatusNoContent)
}
