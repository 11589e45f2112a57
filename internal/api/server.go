package api

import (
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/hyeon/campus-notices/internal/calendar"
	"github.com/hyeon/campus-notices/internal/db"
	"github.com/hyeon/campus-notices/internal/eligibility"
	"github.com/hyeon/campus-notices/internal/ingest"
	"github.com/hyeon/campus-notices/internal/keydate"
)

type Server struct {
	Store       *db.Store
	Calendar    *calendar.Store
	Eligibility *eligibility.Client
	Pipeline    *ingest.Pipeline
	Echo        *echo.Echo
	DB          *pgxpool.Pool
}

func NewServer(pool *pgxpool.Pool, cal *calendar.Store, pipeline *ingest.Pipeline) *Server {
	e := echo.New()
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	// CORS: allow frontend origins from env or default to localhost
	allowedOrigins := []string{"http://localhost:3000"}
	if extra := os.Getenv("CORS_ORIGINS"); extra != "" {
		for _, o := range strings.Split(extra, ",") {
			o = strings.TrimSpace(o)
			if o != "" {
				allowedOrigins = append(allowedOrigins, o)
			}
		}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: allowedOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
	}))

	s := &Server{
		Store:       db.NewStore(pool),
		Calendar:    cal,
		Eligibility: eligibility.NewClient(os.Getenv("ELIGIBILITY_API")),
		Pipeline:    pipeline,
		Echo:        e,
		DB:          pool,
	}

	s.routes()
	return s
}

func (s *Server) routes() {
	s.Echo.GET("/health", s.handleHealth)

	api := s.Echo.Group("/api/v1")
	api.GET("/notices", s.handleListNotices)
	api.GET("/notices/:id", s.handleGetNotice)
	api.GET("/notices/:id/key-dates", s.handleGetKeyDates)
	api.POST("/notices/:id/verify", s.handleVerifyNotice)

	api.GET("/calendar", s.handleListEvents)
	api.POST("/calendar", s.handleAddEvent)
	api.DELETE("/calendar/:id", s.handleRemoveEvent)
	api.POST("/calendar/sync", s.handleSyncEvents)

	api.POST("/ingest/source/:id", s.handleIngestSource)
	api.POST("/ingest/all", s.handleIngestAll)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

func (s *Server) handleListNotices(c echo.Context) error {
	params := db.ListParams{
		Category: c.QueryParam("category"),
	}
	if l, err := strconv.Atoi(c.QueryParam("limit")); err == nil && l > 0 && l <= 100 {
		params.Limit = l
	}
	if o, err := strconv.Atoi(c.QueryParam("offset")); err == nil && o >= 0 {
		params.Offset = o
	}

	result, err := s.Store.ListNotices(c.Request().Context(), params)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, result)
}

func (s *Server) handleGetNotice(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid notice id"})
	}

	notice, err := s.Store.GetNotice(c.Request().Context(), id)
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "notice not found"})
	}
	return c.JSON(http.StatusOK, notice)
}

func (s *Server) handleGetKeyDates(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid notice id"})
	}

	notice, err := s.Store.GetNotice(c.Request().Context(), id)
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "notice not found"})
	}

	return c.JSON(http.StatusOK, keydate.Derive(notice.QualificationAI))
}

func (s *Server) handleVerifyNotice(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid notice id"})
	}

	notice, err := s.Store.GetNotice(c.Request().Context(), id)
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "notice not found"})
	}

	// Informational notices have nothing to qualify for.
	if notice.IsGeneral() {
		return c.JSON(http.StatusUnprocessableEntity, map[string]string{"error": "verification not available for general notices"})
	}

	noticeID := strconv.FormatInt(notice.ID, 10)
	payload, err := s.Eligibility.Verify(c.Request().Context(), noticeID)
	if err != nil {
		return c.JSON(http.StatusBadGateway, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, eligibility.Map(payload, noticeID))
}

type addEventRequest struct {
	NoticeID  string `json:"notice_id"`
	Title     string `json:"title"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Source    string `json:"source"`
}

func (s *Server) handleListEvents(c echo.Context) error {
	return c.JSON(http.StatusOK, s.Calendar.Events())
}

func (s *Server) handleAddEvent(c echo.Context) error {
	var req addEventRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}
	if req.NoticeID == "" || req.StartDate == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "notice_id and start_date are required"})
	}

	start, err := time.Parse(time.RFC3339, req.StartDate)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "start_date must be RFC 3339"})
	}

	input := calendar.AddEventInput{
		NoticeID: req.NoticeID,
		Title:    req.Title,
		StartAt:  start,
		Source:   req.Source,
	}
	if req.EndDate != "" {
		end, err := time.Parse(time.RFC3339, req.EndDate)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "end_date must be RFC 3339"})
		}
		input.EndAt = &end
	}

	result := s.Calendar.AddEvent(input)
	status := http.StatusCreated
	if result.Status == calendar.StatusDuplicate {
		status = http.StatusOK
	}
	return c.JSON(status, result)
}

func (s *Server) handleRemoveEvent(c echo.Context) error {
	s.Calendar.RemoveEvent(c.Param("id"))
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleSyncEvents(c echo.Context) error {
	notices, err := s.Store.ListNoticesWithSchedule(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	s.Calendar.SyncNoticeEvents(notices)
	return c.JSON(http.StatusOK, map[string]int{"events": len(s.Calendar.Events())})
}

func (s *Server) handleIngestSource(c echo.Context) error {
	stats, err := s.Pipeline.IngestSource(c.Request().Context(), c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, stats)
}

func (s *Server) handleIngestAll(c echo.Context) error {
	return c.JSON(http.StatusOK, s.Pipeline.IngestAll(c.Request().Context()))
}

func (s *Server) Start(port string) error {
	return s.Echo.Start(":" + port)
}
