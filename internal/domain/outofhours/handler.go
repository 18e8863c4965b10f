package outofhours

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/HutchE92/handover/internal/platform/apperr"
	"github.com/HutchE92/handover/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the Hospital at Night list under
// /hospital-at-night. Doctors and nurses can both raise and action
// requests.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/hospital-at-night", auth.RequireRole(auth.RoleDoctor, auth.RoleNurse))
	g.GET("", h.ListEntries)
	g.POST("", h.CreateEntry)
	g.GET("/:id", h.GetEntry)
	g.PUT("/:id", h.UpdateEntry)
	g.PATCH("/:id", h.UpdateEntry)
	g.DELETE("/:id", h.DeleteEntry)
	g.POST("/:id/status", h.SetStatus)
	g.POST("/:id/comments", h.AddComment)
	g.PUT("/:id/roles", h.ReassignRoles)
}

type listResponse struct {
	Entries []*Entry `json:"entries"`
	Total   int      `json:"total"`
}

func parseID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusNotFound, "review entry not found")
	}
	return id, nil
}

func (h *Handler) ListEntries(c echo.Context) error {
	ctx := c.Request().Context()
	var (
		entries []*Entry
		err     error
	)
	if pid := c.QueryParam("patient_id"); pid != "" {
		id, perr := uuid.Parse(pid)
		if perr != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid patient_id")
		}
		entries, err = h.svc.ListByPatient(ctx, id)
	} else {
		entries, err = h.svc.List(ctx)
	}
	if err != nil {
		return apperr.HTTP(err, "failed to fetch review entries")
	}
	if entries == nil {
		entries = []*Entry{}
	}
	return c.JSON(http.StatusOK, listResponse{Entries: entries, Total: len(entries)})
}

func (h *Handler) CreateEntry(c echo.Context) error {
	var e Entry
	if err := c.Bind(&e); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := h.svc.Create(c.Request().Context(), &e); err != nil {
		return apperr.HTTP(err, "failed to create review entry")
	}
	return c.JSON(http.StatusCreated, e)
}

func (h *Handler) GetEntry(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	e, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return apperr.HTTP(err, "failed to fetch review entry")
	}
	return c.JSON(http.StatusOK, e)
}

func (h *Handler) UpdateEntry(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var u EntryUpdate
	if err := c.Bind(&u); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	e, err := h.svc.Update(c.Request().Context(), id, &u)
	if err != nil {
		return apperr.HTTP(err, "failed to update review entry")
	}
	return c.JSON(http.StatusOK, e)
}

func (h *Handler) DeleteEntry(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return apperr.HTTP(err, "failed to delete review entry")
	}
	return c.NoContent(http.StatusNoContent)
}

type statusRequest struct {
	Status    Status `json:"status"`
	TodayOnly bool   `json:"today_only"`
}

func (h *Handler) SetStatus(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var req statusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	e, err := h.svc.SetStatus(c.Request().Context(), id, req.Status, req.TodayOnly)
	if err != nil {
		return apperr.HTTP(err, "failed to update review status")
	}
	return c.JSON(http.StatusOK, e)
}

type commentRequest struct {
	Text      string `json:"text"`
	CreatedBy string `json:"created_by"`
}

func (h *Handler) AddComment(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var req commentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	e, err := h.svc.AddComment(c.Request().Context(), id, req.Text, req.CreatedBy)
	if err != nil {
		return apperr.HTTP(err, "failed to add comment")
	}
	return c.JSON(http.StatusCreated, e)
}

type rolesRequest struct {
	AssignedRoles []Role `json:"assigned_roles"`
}

func (h *Handler) ReassignRoles(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var req rolesRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	e, err := h.svc.ReassignRoles(c.Request().Context(), id, req.AssignedRoles)
	if err != nil {
		return apperr.HTTP(err, "failed to reassign roles")
	}
	return c.JSON(http.StatusOK, e)
}
