// Package pagination reads optional limit/offset query parameters. Ward
// listings are small, so a request without a limit gets every row.
package pagination

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

const MaxLimit = 500

// Params holds pagination parameters extracted from a request. A zero Limit
// means unpaged.
type Params struct {
	Limit  int
	Offset int
}

// FromContext extracts pagination parameters from the echo context.
func FromContext(c echo.Context) Params {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit < 0 {
		limit = 0
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	if offset < 0 {
		offset = 0
	}

	return Params{Limit: limit, Offset: offset}
}

// Paged reports whether a limit was requested.
func (p Params) Paged() bool {
	return p.Limit > 0
}

// HasNext returns true if there are more results after the current page.
func (p Params) HasNext(total int) bool {
	return p.Paged() && p.Offset+p.Limit < total
}

// HasPrevious returns true if there are results before the current page.
func (p Params) HasPrevious() bool {
	return p.Offset > 0
}

// NextOffset returns the offset for the next page.
func (p Params) NextOffset() int {
	return p.Offset + p.Limit
}

// Apply slices items to the requested window. Without a limit only the
// offset is applied.
func Apply[T any](items []T, p Params) []T {
	if p.Offset >= len(items) {
		return items[:0]
	}
	items = items[p.Offset:]
	if p.Paged() && p.Limit < len(items) {
		items = items[:p.Limit]
	}
	return items
}

// SetHeaders advertises the window on the response so list bodies keep
// their plain shape.
func SetHeaders(c echo.Context, p Params, total int) {
	h := c.Response().Header()
	h.Set("X-Total-Count", strconv.Itoa(total))
	if p.HasNext(total) {
		h.Set("X-Next-Offset", strconv.Itoa(p.NextOffset()))
	}
}
