package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/teetime-booking/internal/repository"
	"github.com/iliyamo/teetime-booking/internal/service"
)

// CourseLister is the read side of the course catalog.
type CourseLister interface {
	SearchCourses(ctx context.Context, q repository.CourseSearchQuery) ([]repository.CourseRow, int64, error)
}

// CourseHandler serves the public catalog and live availability.
type CourseHandler struct {
	Courses      CourseLister
	Availability *service.AvailabilityService
}

// ListCourses handles GET /v1/courses?q=&provider=&page=&pageSize=.
// Responses are cached by the Redis response cache middleware.
func (h *CourseHandler) ListCourses(c echo.Context) error {
	page, err := optionalInt(c.QueryParam("page"))
	if err != nil {
		return badRequest(c, "page must be a number")
	}
	size, err := optionalInt(c.QueryParam("pageSize"))
	if err != nil {
		return badRequest(c, "pageSize must be a number")
	}
	q := repository.CourseSearchQuery{
		Name:     c.QueryParam("q"),
		Provider: c.QueryParam("provider"),
		Page:     page,
		PageSize: size,
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	items, total, err := h.Courses.SearchCourses(ctx, q)
	if err != nil {
		return fail(c, err)
	}
	if items == nil {
		items = []repository.CourseRow{}
	}
	// echo back the effective paging
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 || q.PageSize > 100 {
		q.PageSize = 20
	}
	return c.JSON(http.StatusOK, echo.Map{
		"items":    items,
		"page":     q.Page,
		"pageSize": q.PageSize,
		"total":    total,
	})
}

// SearchAvailability handles GET /v1/courses/:id/availability?date=&players=&holes=.
// Every slot returned here has its price recorded in the price cache.
func (h *CourseHandler) SearchAvailability(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return badRequest(c, "invalid course id")
	}
	date, err := time.Parse("2006-01-02", c.QueryParam("date"))
	if err != nil {
		return badRequest(c, "date must be YYYY-MM-DD")
	}
	players, err := optionalInt(c.QueryParam("players"))
	if err != nil {
		return badRequest(c, "players must be a number")
	}
	holes, err := optionalInt(c.QueryParam("holes"))
	if err != nil || (holes != 0 && holes != 9 && holes != 18) {
		return badRequest(c, "holes must be 9 or 18")
	}

	res, err := h.Availability.Search(c.Request().Context(), service.AvailabilityRequest{
		CourseID: id,
		Date:     date,
		Players:  players,
		Holes:    holes,
	})
	if err != nil {
		return fail(c, err)
	}

	slots := make([]slotView, 0, len(res.Slots))
	for _, s := range res.Slots {
		slots = append(slots, newSlotView(s))
	}
	return c.JSON(http.StatusOK, echo.Map{"course": res.Course, "date": res.Date, "slots": slots})
}

func optionalInt(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}
