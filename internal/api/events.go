package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pfrederiksen/perk-events/internal/digest"
	"github.com/pfrederiksen/perk-events/internal/event"
	"github.com/pfrederiksen/perk-events/internal/filter"
)

type eventsResponse struct {
	Start  time.Time     `json:"start"`
	End    time.Time     `json:"end"`
	Count  int           `json:"count"`
	Events []event.Event `json:"events"`
}

// getTomorrow returns tomorrow's events, optionally narrowed by perks,
// location and title keywords.
func (s *Server) getTomorrow(c *gin.Context) {
	f, err := filter.Parse(c.Query("perks"), c.Query("location"), c.Query("q"))
	if err != nil {
		abort(c, http.StatusBadRequest, err.Error(), nil)
		return
	}

	builder := &digest.Builder{Source: s.events, Location: s.loc, Now: s.now}
	d, err := builder.Build(c.Request.Context())
	if err != nil {
		abort(c, http.StatusBadGateway, "failed to query events", err)
		return
	}
	d = d.Filter(f)

	c.JSON(http.StatusOK, eventsResponse{
		Start:  d.Start,
		End:    d.End,
		Count:  len(d.Events),
		Events: d.Events,
	})
}

// getEvents returns events with from <= date_time < to.
func (s *Server) getEvents(c *gin.Context) {
	query := struct {
		From string `form:"from" binding:"required"`
		To   string `form:"to" binding:"required"`
	}{}
	if err := c.ShouldBindQuery(&query); err != nil {
		abort(c, http.StatusBadRequest, "from and to are required", nil)
		return
	}

	from, err := time.Parse(time.RFC3339, query.From)
	if err != nil {
		abort(c, http.StatusBadRequest, "invalid from: use RFC3339 (e.g., 2025-10-15T00:00:00Z)", nil)
		return
	}
	to, err := time.Parse(time.RFC3339, query.To)
	if err != nil {
		abort(c, http.StatusBadRequest, "invalid to: use RFC3339 (e.g., 2025-10-16T00:00:00Z)", nil)
		return
	}
	if !to.After(from) {
		abort(c, http.StatusBadRequest, "to must be after from", nil)
		return
	}
	if to.Sub(from) > MaxRange {
		abort(c, http.StatusBadRequest, fmt.Sprintf("range may not exceed %d days", int(MaxRange.Hours()/24)), nil)
		return
	}

	events, err := s.events.EventsBetween(c.Request.Context(), from.UTC(), to.UTC())
	if err != nil {
		abort(c, http.StatusBadGateway, "failed to query events", err)
		return
	}
	if events == nil {
		events = []event.Event{}
	}

	c.JSON(http.StatusOK, eventsResponse{
		Start:  from.UTC(),
		End:    to.UTC(),
		Count:  len(events),
		Events: events,
	})
}
