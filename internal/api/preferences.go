package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/pfrederiksen/perk-events/internal/event"
	"github.com/pfrederiksen/perk-events/internal/preferences"
)

var validate = validator.New()

var errNoPreferences = errors.New("preferences storage not configured")

type preferencesRequest struct {
	Perks  []string `json:"perks"`
	Active *bool    `json:"active"`
}

// emailParam returns the normalized :email path parameter, or aborts.
func emailParam(c *gin.Context) (string, bool) {
	email := preferences.NormalizeEmail(c.Param("email"))
	if err := validate.Var(email, "required,email"); err != nil {
		abort(c, http.StatusBadRequest, "invalid email address", nil)
		return "", false
	}
	return email, true
}

func (s *Server) getPreferences(c *gin.Context) {
	if s.prefs == nil {
		abort(c, http.StatusServiceUnavailable, errNoPreferences.Error(), nil)
		return
	}
	email, ok := emailParam(c)
	if !ok {
		return
	}

	s.prefsMu.Lock()
	subs, err := s.prefs.Load()
	s.prefsMu.Unlock()
	if err != nil {
		abort(c, http.StatusInternalServerError, "failed to load preferences", err)
		return
	}

	sub, found := subs.Get(email)
	if !found {
		abort(c, http.StatusNotFound, "subscriber not found", nil)
		return
	}
	c.JSON(http.StatusOK, sub)
}

// putPreferences creates or updates a subscriber. Omitted perks mean every
// perk; omitted active leaves the current state (new subscribers are active).
func (s *Server) putPreferences(c *gin.Context) {
	if s.prefs == nil {
		abort(c, http.StatusServiceUnavailable, errNoPreferences.Error(), nil)
		return
	}
	email, ok := emailParam(c)
	if !ok {
		return
	}

	var req preferencesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, "invalid request body", nil)
		return
	}

	perks := make([]event.Perk, 0, len(req.Perks))
	for _, name := range req.Perks {
		p, ok := event.ParsePerk(name)
		if !ok {
			abort(c, http.StatusBadRequest, fmt.Sprintf("unknown perk %q", name), nil)
			return
		}
		perks = append(perks, p)
	}
	if len(perks) == 0 {
		perks = event.AllPerks
	}

	s.prefsMu.Lock()
	defer s.prefsMu.Unlock()

	subs, err := s.prefs.Load()
	if err != nil {
		abort(c, http.StatusInternalServerError, "failed to load preferences", err)
		return
	}
	sub := subs.SetPerks(email, perks)
	if req.Active != nil {
		subs.SetActive(email, *req.Active)
	}
	if err := s.prefs.Save(subs); err != nil {
		abort(c, http.StatusInternalServerError, "failed to save preferences", err)
		return
	}

	c.JSON(http.StatusOK, sub)
}

// deletePreferences unsubscribes an address.
func (s *Server) deletePreferences(c *gin.Context) {
	if s.prefs == nil {
		abort(c, http.StatusServiceUnavailable, errNoPreferences.Error(), nil)
		return
	}
	email, ok := emailParam(c)
	if !ok {
		return
	}

	s.prefsMu.Lock()
	defer s.prefsMu.Unlock()

	subs, err := s.prefs.Load()
	if err != nil {
		abort(c, http.StatusInternalServerError, "failed to load preferences", err)
		return
	}
	if !subs.Remove(email) {
		abort(c, http.StatusNotFound, "subscriber not found", nil)
		return
	}
	if err := s.prefs.Save(subs); err != nil {
		abort(c, http.StatusInternalServerError, "failed to save preferences", err)
		return
	}

	c.Status(http.StatusNoContent)
}
