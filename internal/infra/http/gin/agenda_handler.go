package ginserver

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	gin "github.com/gin-gonic/gin"

	"condobook/internal/app/dto"
	agendaapp "condobook/internal/app/handlers/agenda"
	"condobook/internal/app/queries"
)

type AgendaHandler struct {
	Queries queries.Bus
}

// Month serves /calendar/month?year=2026&month=3; statuses repeat as
// ?status=CONFIRMED&status=PENDING or comma separated.
func (h AgendaHandler) Month(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	year, ok := intParam(c, "year")
	if !ok {
		return
	}
	month, ok := intParam(c, "month")
	if !ok {
		return
	}
	q := agendaapp.GetAgendaQuery{
		Actor:     actor,
		Year:      year,
		Month:     month,
		AmenityID: c.Query("amenity_id"),
		UnitID:    c.Query("unit_id"),
		Statuses:  listParam(c, "status"),
	}
	result, err := queries.Ask[agendaapp.GetAgendaQuery, dto.MonthAgenda](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h AgendaHandler) ListAll(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	paging, ok := pagingParams(c)
	if !ok {
		return
	}
	from, ok := timeParam(c, "from")
	if !ok {
		return
	}
	to, ok := timeParam(c, "to")
	if !ok {
		return
	}
	q := agendaapp.ListAllQuery{
		Actor:     actor,
		AmenityID: c.Query("amenity_id"),
		UnitID:    c.Query("unit_id"),
		Statuses:  listParam(c, "status"),
		From:      from,
		To:        to,
		Sort:      c.Query("sort"),
		Paging:    paging,
	}
	h.page(c, func() (dto.CalendarPage, error) {
		return queries.Ask[agendaapp.ListAllQuery, dto.CalendarPage](c.Request.Context(), h.Queries, q)
	})
}

func (h AgendaHandler) ListMine(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	paging, ok := pagingParams(c)
	if !ok {
		return
	}
	q := agendaapp.ListMineQuery{Actor: actor, Statuses: listParam(c, "status"), Paging: paging}
	h.page(c, func() (dto.CalendarPage, error) {
		return queries.Ask[agendaapp.ListMineQuery, dto.CalendarPage](c.Request.Context(), h.Queries, q)
	})
}

func (h AgendaHandler) Bulletin(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	paging, ok := pagingParams(c)
	if !ok {
		return
	}
	q := agendaapp.ListBulletinQuery{Actor: actor, Paging: paging}
	h.page(c, func() (dto.CalendarPage, error) {
		return queries.Ask[agendaapp.ListBulletinQuery, dto.CalendarPage](c.Request.Context(), h.Queries, q)
	})
}

func (h AgendaHandler) Item(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	q := agendaapp.GetItemQuery{Actor: actor, ItemID: strings.TrimSpace(c.Param("id"))}
	result, err := queries.Ask[agendaapp.GetItemQuery, dto.CalendarItem](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h AgendaHandler) page(c *gin.Context, ask func() (dto.CalendarPage, error)) {
	result, err := ask()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func intParam(c *gin.Context, name string) (int, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		badRequest(c, name, "is required")
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		badRequest(c, name, "must be an integer")
		return 0, false
	}
	return v, true
}

func optionalInt(c *gin.Context, name string) (int, bool) {
	if strings.TrimSpace(c.Query(name)) == "" {
		return 0, true
	}
	return intParam(c, name)
}

func pagingParams(c *gin.Context) (agendaapp.Paging, bool) {
	page, ok := optionalInt(c, "page")
	if !ok {
		return agendaapp.Paging{}, false
	}
	size, ok := optionalInt(c, "page_size")
	if !ok {
		return agendaapp.Paging{}, false
	}
	return agendaapp.Paging{Page: page, PageSize: size}, true
}

func timeParam(c *gin.Context, name string) (*time.Time, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, true
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		badRequest(c, name, "must be an RFC 3339 timestamp")
		return nil, false
	}
	return &t, true
}

func listParam(c *gin.Context, name string) []string {
	var out []string
	for _, raw := range c.QueryArray(name) {
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

var _ AgendaHTTP = AgendaHandler{}
