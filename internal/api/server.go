package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/david/tender-finder/internal/auth"
	"github.com/david/tender-finder/internal/compliance"
	"github.com/david/tender-finder/internal/db"
	"github.com/david/tender-finder/internal/logger"
	"github.com/david/tender-finder/internal/models"
)

// Store is the persistence the API needs; *db.Store implements it.
type Store interface {
	GetVendor(ctx context.Context, id uuid.UUID) (*models.VendorProfile, error)
	GetVendorByUser(ctx context.Context, userID uuid.UUID) (*models.VendorProfile, error)
	ListVendors(ctx context.Context, status string) ([]models.VendorProfile, error)
	SaveVendor(ctx context.Context, p *models.VendorProfile) error

	ListTenders(ctx context.Context, params db.TenderListParams) (*db.TenderListResult, error)
	ListManagedTenders(ctx context.Context, owner *uuid.UUID) ([]models.Tender, error)
	GetTender(ctx context.Context, id uuid.UUID) (*models.Tender, error)
	CreateTender(ctx context.Context, t *models.Tender) error
	UpdateTender(ctx context.Context, t *models.Tender) error
	UpdateTenderStatus(ctx context.Context, id uuid.UUID, status models.TenderStatus) error
	DeleteTender(ctx context.Context, id uuid.UUID) error
	SuggestionPool(ctx context.Context, categories, sectors []string, limit int) ([]models.Tender, error)
	UpcomingTenders(ctx context.Context, limit int) ([]models.Tender, error)

	CreateApplication(ctx context.Context, a *models.Application) error
	GetApplication(ctx context.Context, id uuid.UUID) (*models.Application, error)
	ListApplicationsByUser(ctx context.Context, userID uuid.UUID) ([]models.Application, error)
	ListApplicationsByTender(ctx context.Context, tenderID uuid.UUID) ([]models.Application, error)
	RecentApplicationTenders(ctx context.Context, userID uuid.UUID, limit int) ([]models.Tender, error)
	UpdateApplicationStatus(ctx context.Context, id uuid.UUID, status models.ApplicationStatus) error
}

type Options struct {
	Store          Store
	Auth           *auth.Service
	Logger         *zap.Logger
	CORSOrigins    []string
	UploadDir      string
	MaxUploadBytes int64
}

type Server struct {
	Store     Store
	Auth      *auth.Service
	Echo      *echo.Echo
	Evaluator *compliance.Evaluator

	log            *zap.Logger
	uploadDir      string
	maxUploadBytes int64
	now            func() time.Time
}

func NewServer(opts Options) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Validator = newValidator()
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: opts.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 10 << 20
	}

	s := &Server{
		Store:          opts.Store,
		Auth:           opts.Auth,
		Echo:           e,
		Evaluator:      compliance.NewEvaluator(),
		log:            logger.OrNop(opts.Logger),
		uploadDir:      opts.UploadDir,
		maxUploadBytes: opts.MaxUploadBytes,
		now:            time.Now,
	}

	e.HTTPErrorHandler = s.handleError
	s.routes()
	return s
}

func (s *Server) routes() {
	s.Echo.GET("/health", s.handleHealth)
	api := s.Echo.Group("/api/v1")

	api.POST("/auth/signup", s.handleSignup)
	api.POST("/auth/login", s.handleLogin)

	authed := s.Auth.Middleware
	adminOnly := auth.RequireRole(auth.RoleAdmin)
	publishers := auth.RequireRole(auth.RolePublisher, auth.RoleAdmin)

	vendors := api.Group("/vendors", authed)
	vendors.GET("/me", s.handleGetMyVendor)
	vendors.POST("", s.handleUpsertVendor)
	vendors.POST("/:id/documents", s.handleUploadDocument, middleware.BodyLimit(strconv.FormatInt(s.maxUploadBytes>>10+64, 10)+"K"))
	vendors.GET("/:id/documents/:filename/download", s.handleDownloadDocument)
	vendors.GET("", s.handleListVendors, adminOnly)
	vendors.GET("/:id", s.handleGetVendor, adminOnly)
	vendors.PUT("/:id/status", s.handleVendorStatus, adminOnly)

	api.GET("/tenders", s.handleListTenders)
	api.GET("/tenders/suggestions", s.handleSuggestions, authed)
	api.GET("/tenders/manage", s.handleManageTenders, authed, publishers)
	api.GET("/tenders/:id", s.handleGetTender, s.Auth.OptionalMiddleware)
	api.GET("/tenders/:id/qualification", s.handleQualification, s.Auth.OptionalMiddleware)
	api.POST("/tenders", s.handleCreateTender, authed, publishers)
	api.PUT("/tenders/:id", s.handleUpdateTender, authed, publishers)
	api.PUT("/tenders/:id/status", s.handleTenderStatus, authed, adminOnly)
	api.DELETE("/tenders/:id", s.handleDeleteTender, authed, publishers)

	apps := api.Group("/applications", authed)
	apps.POST("", s.handleCreateApplication)
	apps.GET("/user/:userId", s.handleUserApplications)
	apps.GET("/tender/:tenderId", s.handleTenderApplications)
	apps.PUT("/:id/status", s.handleApplicationStatus)
}

func (s *Server) Start(port string) error {
	return s.Echo.Start(":" + port)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

func errorJSON(c echo.Context, status int, msg string) error {
	return c.JSON(status, map[string]string{"error": msg})
}

// storeError maps a store error onto an HTTP error, logging unexpected ones.
func (s *Server) storeError(c echo.Context, err error, what string) error {
	if errors.Is(err, db.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, what+" not found")
	}
	s.log.Error("store operation failed", zap.String("resource", what), zap.String("path", c.Path()), zap.Error(err))
	return echo.NewHTTPError(http.StatusInternalServerError, "Internal Server Error")
}

// handleError renders every error as {"error": message}.
func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	status := http.StatusInternalServerError
	msg := "Internal Server Error"
	var he *echo.HTTPError
	if errors.As(err, &he) {
		status = he.Code
		if m, ok := he.Message.(string); ok {
			msg = m
		} else {
			msg = http.StatusText(status)
		}
	} else {
		s.log.Error("unhandled request error", zap.String("path", c.Path()), zap.Error(err))
	}
	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(status)
		return
	}
	_ = errorJSON(c, status, msg)
}

func identity(c echo.Context) (auth.Identity, error) {
	id, ok := auth.IdentityFrom(c)
	if !ok {
		return auth.Identity{}, echo.NewHTTPError(http.StatusUnauthorized, "Not authenticated")
	}
	return id, nil
}

func pathUUID(c echo.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "Invalid "+name)
	}
	return id, nil
}

// splitCSV splits a comma-separated query parameter into trimmed non-empty strings.
func splitCSV(s string) []string {
	var result []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			result = append(result, part)
		}
	}
	return result
}

// parseDate accepts RFC3339 timestamps and plain dates.
func parseDate(v string) (*time.Time, bool) {
	if v == "" {
		return nil, true
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, v); err == nil {
			return &t, true
		}
	}
	return nil, false
}
