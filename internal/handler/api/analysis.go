package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"SmartFolio/internal/domain/models"
	domainrepo "SmartFolio/internal/domain/repository"
	"SmartFolio/internal/repository"
	"SmartFolio/internal/service/ratelimit"
	"SmartFolio/internal/usecase"
	pkghttp "SmartFolio/pkg/http"
	"SmartFolio/pkg/logger"
	"SmartFolio/pkg/ws"
)

// Handler exposes the analysis engine over HTTP.
type Handler struct {
	orchestrator *usecase.SessionOrchestrator
	sessions     domainrepo.SessionStore
	recs         domainrepo.RecommendationStore
	profiles     domainrepo.RiskProfileStore
	hub          *ws.Hub
	limiter      *ratelimit.Limiter
	log          *logger.Logger
}

type HandlerOptions struct {
	Orchestrator *usecase.SessionOrchestrator
	Sessions     domainrepo.SessionStore
	Recs         domainrepo.RecommendationStore
	Profiles     domainrepo.RiskProfileStore
	Hub          *ws.Hub
	Limiter      *ratelimit.Limiter
	Logger       *logger.Logger
}

func NewHandler(opts HandlerOptions) *Handler {
	log := opts.Logger
	if log == nil {
		log = logger.NewNop()
	}
	return &Handler{
		orchestrator: opts.Orchestrator,
		sessions:     opts.Sessions,
		recs:         opts.Recs,
		profiles:     opts.Profiles,
		hub:          opts.Hub,
		limiter:      opts.Limiter,
		log:          log,
	}
}

// Register mounts all analysis routes.
func (h *Handler) Register(e *echo.Echo) {
	api := e.Group("/api")
	if h.limiter != nil {
		api.Use(h.rateLimit(30, 10))
	}

	api.POST("/analysis/run", h.runAnalysis)
	api.GET("/analysis/sessions", h.listSessions)
	api.GET("/analysis/sessions/latest", h.latestSession)
	api.GET("/analysis/sessions/:id", h.getSession)
	api.GET("/analysis/recommendations/pending", h.pendingRecommendations)
	api.POST("/analysis/recommendations/:id/execute", h.executeRecommendation)
	api.GET("/risk-profile/:user_id", h.getRiskProfile)
	api.PUT("/risk-profile/:user_id", h.putRiskProfile)

	e.GET("/api/analysis/stream", h.stream)
	e.GET("/healthz", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
}

func (h *Handler) rateLimit(capacity, refillPerSec float64) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !h.limiter.Allow(c.RealIP(), capacity, refillPerSec) {
				return pkghttp.Error(c, http.StatusTooManyRequests, "rate limit exceeded")
			}
			return next(c)
		}
	}
}

func (h *Handler) runAnalysis(c echo.Context) error {
	var req models.RunAnalysisRequest
	if err := pkghttp.ReadAndValidateRequest(c, &req); err != nil {
		return err
	}

	session, err := h.orchestrator.Run(c.Request().Context(), req.Scope, req.UserID, req.DryRun)
	if err != nil {
		if errors.Is(err, usecase.ErrRunInProgress) {
			return pkghttp.Error(c, http.StatusConflict, err.Error())
		}
		h.log.Error("analysis run failed", logger.Error(err))
		return pkghttp.Error(c, http.StatusInternalServerError, "analysis run failed")
	}
	return pkghttp.OK(c, models.RunAnalysisResponse{Session: *session})
}

func (h *Handler) listSessions(c echo.Context) error {
	var req models.ListSessionsRequest
	if err := pkghttp.ReadAndValidateRequest(c, &req); err != nil {
		return err
	}

	sessions, err := h.sessions.List(c.Request().Context(), req.UserID, req.Limit, req.Offset)
	if err != nil {
		return pkghttp.Error(c, http.StatusInternalServerError, "list sessions")
	}
	return pkghttp.OK(c, sessions)
}

func (h *Handler) latestSession(c echo.Context) error {
	userID := c.QueryParam("user_id")
	if userID == "" {
		return pkghttp.Error(c, http.StatusBadRequest, "user_id is required")
	}

	session, err := h.sessions.Latest(c.Request().Context(), userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return pkghttp.Error(c, http.StatusNotFound, "no sessions yet")
		}
		return pkghttp.Error(c, http.StatusInternalServerError, "load session")
	}

	recs, err := h.recs.BySession(c.Request().Context(), session.ID)
	if err != nil {
		return pkghttp.Error(c, http.StatusInternalServerError, "load recommendations")
	}
	return pkghttp.OK(c, models.SessionDetailResponse{Session: *session, Recommendations: recs})
}

func (h *Handler) getSession(c echo.Context) error {
	session, err := h.sessions.GetByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return pkghttp.Error(c, http.StatusNotFound, "session not found")
		}
		return pkghttp.Error(c, http.StatusInternalServerError, "load session")
	}

	recs, err := h.recs.BySession(c.Request().Context(), session.ID)
	if err != nil {
		return pkghttp.Error(c, http.StatusInternalServerError, "load recommendations")
	}
	return pkghttp.OK(c, models.SessionDetailResponse{Session: *session, Recommendations: recs})
}

func (h *Handler) pendingRecommendations(c echo.Context) error {
	userID := c.QueryParam("user_id")
	if userID == "" {
		return pkghttp.Error(c, http.StatusBadRequest, "user_id is required")
	}

	recs, err := h.recs.PendingByUser(c.Request().Context(), userID)
	if err != nil {
		return pkghttp.Error(c, http.StatusInternalServerError, "load recommendations")
	}
	return pkghttp.OK(c, recs)
}

func (h *Handler) executeRecommendation(c echo.Context) error {
	rec, err := h.orchestrator.Execute(c.Request().Context(), c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return pkghttp.Error(c, http.StatusNotFound, "recommendation not found")
		case errors.Is(err, usecase.ErrNotExecutable):
			return pkghttp.Error(c, http.StatusConflict, "recommendation expired or already settled")
		default:
			h.log.Error("execute failed", logger.Error(err))
			return pkghttp.Error(c, http.StatusInternalServerError, "execution failed")
		}
	}
	return pkghttp.OK(c, rec)
}

func (h *Handler) getRiskProfile(c echo.Context) error {
	profile, err := h.profiles.Get(c.Request().Context(), c.Param("user_id"))
	if err != nil {
		return pkghttp.Error(c, http.StatusInternalServerError, "load risk profile")
	}
	return pkghttp.OK(c, profile)
}

func (h *Handler) putRiskProfile(c echo.Context) error {
	var req models.UpdateRiskProfileRequest
	if err := pkghttp.ReadAndValidateRequest(c, &req); err != nil {
		return err
	}

	profile := models.RiskProfile{
		UserID:                   c.Param("user_id"),
		Level:                    req.Level,
		BuyConfidenceThreshold:   req.BuyConfidenceThreshold,
		SellHoldThreshold:        req.SellHoldThreshold,
		MaxPositions:             req.MaxPositions,
		ProfitTakingEnabled:      req.ProfitTakingEnabled,
		ProfitTakingThresholdPct: req.ProfitTakingThresholdPct,
		VolatilityThresholdPct:   req.VolatilityThresholdPct,
		SellWeight:               req.SellWeight,
		AutoExecuteTrades:        req.AutoExecuteTrades,
	}
	if err := h.profiles.Put(c.Request().Context(), profile); err != nil {
		return pkghttp.Error(c, http.StatusInternalServerError, "save risk profile")
	}
	return pkghttp.OK(c, profile)
}

func (h *Handler) stream(c echo.Context) error {
	return h.hub.Serve(c.Response(), c.Request())
}
