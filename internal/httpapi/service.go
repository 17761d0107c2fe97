// Package httpapi serves the read-only JSON surface consumed by
// presentation collaborators (widgets, calendar tables, dashboards). It
// exposes the engine's outputs and never mutates anything.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"prayerd/internal/astro"
	"prayerd/internal/praytime"
	"prayerd/internal/sched"
	"prayerd/internal/storage"
	logx "prayerd/pkg/logx"
)

type Config struct {
	Enabled bool
	Addr    string // default: "127.0.0.1:8741"

	// Defaults used when a request doesn't pin its own coordinate/method.
	Coord  astro.Coordinate
	Method praytime.Method
	Label  string
}

type Service struct {
	mu  sync.Mutex
	cfg Config

	log   logx.Logger
	sched *sched.Service
	store storage.Store // may be nil

	srv *http.Server
}

func New(cfg Config, schedSvc *sched.Service, store storage.Store, log logx.Logger) *Service {
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8741"
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Service{cfg: cfg, log: log, sched: schedSvc, store: store}
}

// Start runs the server in the background. Idempotent.
func (s *Service) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.srv != nil {
		return
	}

	gin.SetMode(gin.ReleaseMode)
	s.srv = &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.router(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func(srv *http.Server) {
		s.log.Info("api listening", logx.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("api server failed", logx.Err(err))
		}
	}(s.srv)
}

func (s *Service) Stop(ctx context.Context) {
	s.mu.Lock()
	srv := s.srv
	s.srv = nil
	s.mu.Unlock()
	if srv == nil {
		return
	}
	sctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(sctx)
	s.log.Info("api stopped")
}

// Apply swaps the request defaults (not the listen address; that needs a
// restart).
func (s *Service) Apply(cfg Config) {
	s.mu.Lock()
	cfg.Addr = s.cfg.Addr
	s.cfg = cfg
	s.mu.Unlock()
}

func (s *Service) defaults() Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

func (s *Service) router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOriginFunc: func(origin string) bool { return true },
		AllowMethods:    []string{"GET", "OPTIONS", "HEAD"},
		AllowHeaders:    []string{"Origin", "Content-Type", "Accept"},
	}))

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) })

	v1 := r.Group("/api/v1")
	v1.GET("/timings", s.getTimings)
	v1.GET("/calendar", s.getCalendar)
	v1.GET("/next", s.getNext)
	v1.GET("/events", s.getEvents)
	return r
}

// query parsing ----------------------------------------------------------

func (s *Service) coordFrom(c *gin.Context) (astro.Coordinate, error) {
	cfg := s.defaults()
	coord := cfg.Coord
	if v := c.Query("lat"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return coord, errors.New("invalid lat")
		}
		coord.Latitude = f
	}
	if v := c.Query("lon"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return coord, errors.New("invalid lon")
		}
		coord.Longitude = f
	}
	return coord, coord.Validate()
}

func (s *Service) methodFrom(c *gin.Context) (praytime.Method, error) {
	if name := c.Query("method"); name != "" {
		m, ok := praytime.MethodByName(name)
		if !ok {
			return praytime.Method{}, errors.New("unknown method " + name)
		}
		return m, nil
	}
	return s.defaults().Method, nil
}

// scheduleCache returns the scheduler's memo cache when the request matches
// the daemon's own coordinate and method; those are the days the tick loop
// already computed, so the API reads them back instead of recomputing. Ad
// hoc coordinates stay out of the cache to keep it bounded to the
// configured location.
func (s *Service) scheduleCache(coord astro.Coordinate, method praytime.Method) *praytime.Cache {
	if s.sched == nil {
		return nil
	}
	cfg := s.defaults()
	if coord != cfg.Coord || method != cfg.Method {
		return nil
	}
	return s.sched.Cache()
}

func (s *Service) schedule(date astro.CivilDate, coord astro.Coordinate, method praytime.Method) (praytime.Schedule, error) {
	if cache := s.scheduleCache(coord, method); cache != nil {
		return cache.Schedule(date, coord, method)
	}
	return praytime.Compute(date, coord, method)
}

// handlers ---------------------------------------------------------------

func (s *Service) getTimings(c *gin.Context) {
	coord, err := s.coordFrom(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	method, err := s.methodFrom(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	date := astro.DateOf(time.Now(), coord.MeanOffset())
	if v := c.Query("date"); v != "" {
		date, err = astro.ParseCivilDate(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid date, want YYYY-MM-DD"})
			return
		}
	}

	sch, err := s.schedule(date, coord, method)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, s.renderTimings(sch, method))
}

func (s *Service) getCalendar(c *gin.Context) {
	coord, err := s.coordFrom(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	method, err := s.methodFrom(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	start := astro.DateOf(time.Now(), coord.MeanOffset())
	if v := c.Query("start"); v != "" {
		start, err = astro.ParseCivilDate(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid start, want YYYY-MM-DD"})
			return
		}
	}
	days := 30
	if v := c.Query("days"); v != "" {
		days, err = strconv.Atoi(v)
		if err != nil || days < 1 || days > 366 {
			c.JSON(http.StatusBadRequest, errorResponse{Error: "days must be in [1,366]"})
			return
		}
	}

	proj, err := praytime.Project(start, days, coord, method)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	if cache := s.scheduleCache(coord, method); cache != nil {
		proj = proj.WithCache(cache)
	}

	resp := calendarResponse{
		Start: start.String(),
		Days:  days,
		Meta:  s.renderMeta(coord, method),
		Items: make([]timingsResponse, 0, days),
	}
	for {
		e, ok := proj.Next()
		if !ok {
			break
		}
		resp.Items = append(resp.Items, s.renderTimings(e.Schedule, method))
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Service) getNext(c *gin.Context) {
	now := time.Now()
	ev, cd, err := s.sched.Next(now)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	cfg := s.defaults()

	var resp nextResponse
	resp.Kind = ev.Kind.String()
	resp.At = ev.At.UTC().Format(time.RFC3339)
	resp.AtClock = ev.At.UTC().Add(cfg.Coord.MeanOffset()).Format("15:04")
	resp.Remaining.Hours = cd.Hours
	resp.Remaining.Minutes = cd.Minutes
	resp.Remaining.Seconds = cd.Seconds
	resp.Remaining.Total = cd.Total
	c.JSON(http.StatusOK, resp)
}

func (s *Service) getEvents(c *gin.Context) {
	if s.store == nil {
		c.JSON(http.StatusNotFound, errorResponse{Error: "event ledger disabled"})
		return
	}
	limit := 50
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 1000 {
			c.JSON(http.StatusBadRequest, errorResponse{Error: "limit must be in [1,1000]"})
			return
		}
		limit = n
	}
	events, err := s.store.RecentFired(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	out := make([]eventRecord, 0, len(events))
	for _, e := range events {
		out = append(out, eventRecord{
			Kind:      e.Kind,
			At:        e.At.UTC().Format(time.RFC3339),
			FiredAt:   e.FiredAt.UTC().Format(time.RFC3339),
			Delivered: e.Delivered,
			Error:     e.Error,
		})
	}
	c.JSON(http.StatusOK, gin.H{"events": out})
}

// rendering --------------------------------------------------------------

func (s *Service) renderMeta(coord astro.Coordinate, method praytime.Method) meta {
	cfg := s.defaults()
	label := ""
	if coord == cfg.Coord {
		label = cfg.Label
	}
	return meta{
		Latitude:      coord.Latitude,
		Longitude:     coord.Longitude,
		Label:         label,
		Method:        method.Name,
		OffsetMinutes: int(coord.MeanOffset() / time.Minute),
	}
}

func (s *Service) renderTimings(sch praytime.Schedule, method praytime.Method) timingsResponse {
	off := sch.Coord.MeanOffset()
	clock := func(t time.Time) string { return t.UTC().Add(off).Format("15:04") }
	utc := func(t time.Time) string { return t.UTC().Format(time.RFC3339) }

	return timingsResponse{
		Date: sch.Date.String(),
		Meta: s.renderMeta(sch.Coord, method),
		Timings: timings{
			Imsak:     clock(sch.Imsak),
			Fajr:      clock(sch.Fajr),
			Sunrise:   clock(sch.Sunrise),
			Dhuhr:     clock(sch.Dhuhr),
			Asr:       clock(sch.Asr),
			Maghrib:   clock(sch.Maghrib),
			Isha:      clock(sch.Isha),
			Midnight:  clock(sch.Midnight),
			LastThird: clock(sch.LastThird),
		},
		Instant: instant{
			Imsak:     utc(sch.Imsak),
			Fajr:      utc(sch.Fajr),
			Sunrise:   utc(sch.Sunrise),
			Dhuhr:     utc(sch.Dhuhr),
			Asr:       utc(sch.Asr),
			Maghrib:   utc(sch.Maghrib),
			Isha:      utc(sch.Isha),
			Midnight:  utc(sch.Midnight),
			LastThird: utc(sch.LastThird),
		},
		HighLatitude: sch.HighLatApplied,
	}
}
