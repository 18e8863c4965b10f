package handover

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

func (h *Handler) RegisterRoutes(api *echo.Group) {
	readGroup := api.Group("", auth.RequireRole(auth.RoleDoctor, auth.RoleNurse))
	readGroup.GET("/handover-notes", h.ListNotes)
	readGroup.GET("/handover-notes/:id", h.GetNote)
	readGroup.GET("/patients/:id/handover-notes", h.ListPatientNotes)
	readGroup.GET("/patients/:id/handover-notes/latest", h.LatestPatientNote)

	writeGroup := api.Group("", auth.RequireRole(auth.RoleNurse))
	writeGroup.POST("/handover-notes", h.CreateNote)
	writeGroup.PUT("/handover-notes/:id", h.UpdateNote)
	writeGroup.DELETE("/handover-notes/:id", h.DeleteNote)
}

type listResponse struct {
	HandoverNotes []*Note `json:"handover_notes"`
	Total         int     `json:"total"`
}

func newListResponse(notes []*Note) listResponse {
	if notes == nil {
		notes = []*Note{}
	}
	return listResponse{HandoverNotes: notes, Total: len(notes)}
}

func parseID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusNotFound, "handover note not found")
	}
	return id, nil
}

func (h *Handler) ListNotes(c echo.Context) error {
	var f Filter
	if pid := c.QueryParam("patient_id"); pid != "" {
		id, err := uuid.Parse(pid)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid patient_id")
		}
		f.PatientID = id
	}
	f.ShiftDate = c.QueryParam("shift_date")

	notes, err := h.svc.List(c.Request().Context(), f)
	if err != nil {
		return apperr.HTTP(err, "failed to fetch handover notes")
	}
	return c.JSON(http.StatusOK, newListResponse(notes))
}

func (h *Handler) CreateNote(c echo.Context) error {
	var n Note
	if err := c.Bind(&n); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := h.svc.Create(c.Request().Context(), &n); err != nil {
		return apperr.HTTP(err, "failed to create handover note")
	}
	return c.JSON(http.StatusCreated, n)
}

func (h *Handler) GetNote(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	n, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return apperr.HTTP(err, "failed to fetch handover note")
	}
	return c.JSON(http.StatusOK, n)
}

func (h *Handler) UpdateNote(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var u ContentUpdate
	if err := c.Bind(&u); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	n, err := h.svc.Update(c.Request().Context(), id, &u)
	if err != nil {
		return apperr.HTTP(err, "failed to update handover note")
	}
	return c.JSON(http.StatusOK, n)
}

func (h *Handler) DeleteNote(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return apperr.HTTP(err, "failed to delete handover note")
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ListPatientNotes(c echo.Context) error {
	pid, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "patient not found")
	}
	notes, err := h.svc.ListByPatient(c.Request().Context(), pid)
	if err != nil {
		return apperr.HTTP(err, "failed to fetch handover notes")
	}
	return c.JSON(http.StatusOK, newListResponse(notes))
}

// LatestPatientNote answers {"handover_note": null} when the patient has
// no notes yet.
func (h *Handler) LatestPatientNote(c echo.Context) error {
	pid, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "patient not found")
	}
	n, err := h.svc.Latest(c.Request().Context(), pid)
	if err != nil {
		return apperr.HTTP(err, "failed to fetch handover note")
	}
	return c.JSON(http.StatusOK, map[string]*Note{"handover_note": n})
}
