package board

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/HutchE92/handover/internal/domain/outofhours"
	"github.com/HutchE92/handover/internal/platform/apperr"
	"github.com/HutchE92/handover/internal/platform/archive"
	"github.com/HutchE92/handover/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/board", auth.RequireRole(auth.RoleDoctor, auth.RoleNurse))
	g.GET("/dashboard", h.GetDashboard)
	g.GET("/wards", h.ListWards)
	g.GET("/wards/:ward", h.GetWardBoard)
	g.GET("/wards/:ward/export", h.ExportWard)
	g.GET("/hospital-at-night", h.ListEntries)
	g.GET("/hospital-at-night/stats", h.GetStats)

	writeGroup := api.Group("/board", auth.RequireRole(auth.RoleNurse))
	writeGroup.POST("/wards/:ward/archive", h.ArchiveWard)
}

func wardParam(c echo.Context) string {
	raw := c.Param("ward")
	if ward, err := url.PathUnescape(raw); err == nil {
		return ward
	}
	return raw
}

// queryList collects a repeated or comma-separated query parameter.
func queryList(c echo.Context, name string) []string {
	var out []string
	for _, v := range c.QueryParams()[name] {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func convert[T ~string](in []string) []T {
	out := make([]T, len(in))
	for i, v := range in {
		out[i] = T(v)
	}
	return out
}

func (h *Handler) GetDashboard(c echo.Context) error {
	d, err := h.svc.Dashboard(c.Request().Context())
	if err != nil {
		return apperr.HTTP(err, "failed to build dashboard")
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) ListWards(c echo.Context) error {
	wards, err := h.svc.Wards(c.Request().Context())
	if err != nil {
		return apperr.HTTP(err, "failed to list wards")
	}
	return c.JSON(http.StatusOK, map[string][]string{"wards": wards})
}

func (h *Handler) GetWardBoard(c echo.Context) error {
	highOnly, _ := strconv.ParseBool(c.QueryParam("high_news"))
	b, err := h.svc.WardBoard(c.Request().Context(), wardParam(c), highOnly)
	if err != nil {
		return apperr.HTTP(err, "failed to build ward board")
	}
	return c.JSON(http.StatusOK, b)
}

func (h *Handler) ExportWard(c echo.Context) error {
	data, name, err := h.svc.WardSheet(c.Request().Context(), wardParam(c))
	if err != nil {
		return apperr.HTTP(err, "failed to export ward")
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", name))
	return c.Blob(http.StatusOK, XLSXMIMEType, data)
}

func (h *Handler) ArchiveWard(c echo.Context) error {
	location, err := h.svc.ArchiveWardSheet(c.Request().Context(), wardParam(c))
	if errors.Is(err, archive.ErrDisabled) {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "archive storage is not configured")
	}
	if err != nil {
		return apperr.HTTP(err, "failed to archive ward sheet")
	}
	return c.JSON(http.StatusCreated, map[string]string{"location": location})
}

func (h *Handler) ListEntries(c echo.Context) error {
	opt, err := ParseSort(c.QueryParam("sort"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	f := EntryFilter{
		Roles:    convert[outofhours.Role](queryList(c, "role")),
		Date:     c.QueryParam("date"),
		Statuses: convert[outofhours.Status](queryList(c, "status")),
		Wards:    queryList(c, "ward"),
		Types:    convert[outofhours.ReviewType](queryList(c, "type")),
	}
	if pid := c.QueryParam("patient_id"); pid != "" {
		id, err := uuid.Parse(pid)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid patient_id")
		}
		f.PatientID = id
	}

	views, err := h.svc.Entries(c.Request().Context(), f, opt)
	if err != nil {
		return apperr.HTTP(err, "failed to fetch review entries")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"entries": views, "total": len(views)})
}

func (h *Handler) GetStats(c echo.Context) error {
	stats, err := h.svc.Stats(c.Request().Context())
	if err != nil {
		return apperr.HTTP(err, "failed to compute statistics")
	}
	return c.JSON(http.StatusOK, stats)
}
