package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pfrederiksen/perk-events/internal/event"
	"github.com/pfrederiksen/perk-events/internal/logger"
	"github.com/pfrederiksen/perk-events/internal/preferences"
)

// MaxRange bounds the window GET /api/events will query.
const MaxRange = 31 * 24 * time.Hour

// EventSource is the read side of the event store.
type EventSource interface {
	EventsBetween(ctx context.Context, start, end time.Time) ([]event.Event, error)
}

// Options wires the server's dependencies. Preferences and Gatherer are
// optional; their routes answer 503 and 404 respectively when unset. An
// empty AllowOrigins allows every origin.
type Options struct {
	Events       EventSource
	Preferences  preferences.Storage
	Gatherer     prometheus.Gatherer
	Location     *time.Location
	Now          func() time.Time
	AllowOrigins []string
	Logger       *logger.Logger
}

// Server holds the handlers' shared state.
type Server struct {
	events   EventSource
	prefs    preferences.Storage
	prefsMu  sync.Mutex
	gatherer prometheus.Gatherer
	loc      *time.Location
	now      func() time.Time
	origins  []string
	log      *logger.Logger
}

// NewServer creates a server from opts.
func NewServer(opts Options) *Server {
	s := &Server{
		events:   opts.Events,
		prefs:    opts.Preferences,
		gatherer: opts.Gatherer,
		loc:      opts.Location,
		now:      opts.Now,
		origins:  opts.AllowOrigins,
		log:      opts.Logger,
	}
	if s.loc == nil {
		s.loc = time.UTC
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.log == nil {
		s.log = logger.Default()
	}
	return s
}

// Router builds the gin engine with every route registered.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	corsConfig := cors.Config{
		AllowMethods:  []string{"GET", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "X-Request-ID"},
		ExposeHeaders: []string{"Content-Length", "X-Request-ID"},
	}
	if len(s.origins) == 0 {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = s.origins
	}

	r := gin.New()
	r.Use(cors.New(corsConfig))
	r.Use(RequestID())
	r.Use(RequestLogger(s.log))
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "perk-events",
		})
	})

	if s.gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))
	}

	events := r.Group("/api/events")
	{
		events.GET("/tomorrow", s.getTomorrow)
		events.GET("", s.getEvents)
	}

	prefs := r.Group("/api/preferences")
	{
		prefs.GET("/:email", s.getPreferences)
		prefs.PUT("/:email", s.putPreferences)
		prefs.DELETE("/:email", s.deletePreferences)
	}

	return r
}

// abort records err for the request logger and writes a JSON error body.
func abort(c *gin.Context, status int, message string, err error) {
	if err != nil {
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": message})
}
