package handler

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/linklytics/linklytics/internal/app/analytics"
	"github.com/linklytics/linklytics/internal/app/repository"
	"github.com/linklytics/linklytics/internal/app/service"
	"github.com/linklytics/linklytics/internal/http/middleware"
	"go.uber.org/zap"
)

// CodeRegistrar learns about freshly created aliases so the lookup path
// can serve them without a store round trip.
type CodeRegistrar interface {
	AddCode(code string)
}

// APIDeps groups dependencies required by API handlers.
type APIDeps struct {
	Logger           *zap.Logger
	LinkService      service.LinkService
	AnalyticsService service.AnalyticsService
	Registrar        CodeRegistrar
	BaseURL          string
}

// APIHandler implements the shorten and analytics endpoints.
type APIHandler struct {
	logger        *zap.Logger
	linkService   service.LinkService
	analyticsSvc  service.AnalyticsService
	registrar     CodeRegistrar
	baseURL       string
}

// NewAPIHandler creates an API handler with the provided dependencies.
func NewAPIHandler(deps APIDeps) *APIHandler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &APIHandler{
		logger:       logger,
		linkService:  deps.LinkService,
		analyticsSvc: deps.AnalyticsService,
		registrar:    deps.Registrar,
		baseURL:      deps.BaseURL,
	}
}

// Register wires API routes onto the provided router. The auth and limit
// handlers guard the routes that need an account or a creation budget.
func (h *APIHandler) Register(router fiber.Router, auth fiber.Handler, limit fiber.Handler) {
	api := router.Group("/api")
	{
		api.Post("/shorten", auth, limit, h.Shorten)

		stats := api.Group("/analytics")
		{
			// "overall" must win over the :alias wildcard.
			stats.Get("/overall", auth, h.OverallAnalytics)
			stats.Get("/topic/:topic", h.TopicAnalytics)
			stats.Get("/:alias", h.AliasAnalytics)
		}
	}
}

// ShortenRequest represents the request body for creating a short link.
type ShortenRequest struct {
	LongURL     string `json:"longUrl"`
	CustomAlias string `json:"customAlias,omitempty"`
	Topic       string `json:"topic,omitempty"`
}

// ShortenResponse represents the response for creating a short link.
type ShortenResponse struct {
	ShortURL  string    `json:"shortUrl"`
	CreatedAt time.Time `json:"createdAt"`
}

// Shorten handles POST /api/shorten
func (h *APIHandler) Shorten(c *fiber.Ctx) error {
	var req ShortenRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	if req.LongURL == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "longUrl is required",
		})
	}

	account := middleware.AccountFromCtx(c)
	if account == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "authentication required",
		})
	}

	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}

	link, err := h.linkService.Shorten(ctx, service.ShortenInput{
		LongURL:     req.LongURL,
		CustomAlias: req.CustomAlias,
		Topic:       req.Topic,
		AccountID:   account.ID,
	})
	if err != nil {
		if errors.Is(err, repository.ErrAliasTaken) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Custom alias already exists. Please choose another one.",
			})
		}
		h.logger.Error("failed to shorten URL", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to create short URL",
		})
	}

	if h.registrar != nil {
		h.registrar.AddCode(link.ShortCode)
	}

	return c.Status(fiber.StatusCreated).JSON(ShortenResponse{
		ShortURL:  h.baseURL + "/" + link.ShortCode,
		CreatedAt: link.CreatedAt,
	})
}

// OverallAnalytics handles GET /api/analytics/overall
func (h *APIHandler) OverallAnalytics(c *fiber.Ctx) error {
	account := middleware.AccountFromCtx(c)
	if account == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "authentication required",
		})
	}

	summary, err := h.analyticsSvc.AccountSummary(userContext(c), account.ID)
	if err != nil {
		h.logger.Error("overall analytics failed", zap.Error(err), zap.Uint("account_id", account.ID))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to load analytics",
		})
	}

	return c.JSON(newAnalyticsResponse(summary))
}

// TopicAnalytics handles GET /api/analytics/topic/:topic
func (h *APIHandler) TopicAnalytics(c *fiber.Ctx) error {
	topic := c.Params("topic")
	if topic == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "missing topic",
		})
	}

	summary, err := h.analyticsSvc.TopicSummary(userContext(c), topic)
	if err != nil {
		h.logger.Error("topic analytics failed", zap.Error(err), zap.String("topic", topic))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to load analytics",
		})
	}

	return c.JSON(newAnalyticsResponse(summary))
}

// AliasAnalytics handles GET /api/analytics/:alias
func (h *APIHandler) AliasAnalytics(c *fiber.Ctx) error {
	alias := c.Params("alias")
	if alias == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "missing alias",
		})
	}

	summary, err := h.analyticsSvc.AliasSummary(userContext(c), alias)
	if err != nil {
		if errors.Is(err, repository.ErrLinkNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "short link not found",
			})
		}
		h.logger.Error("alias analytics failed", zap.Error(err), zap.String("alias", alias))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to load analytics",
		})
	}

	return c.JSON(newAnalyticsResponse(summary))
}

// AnalyticsResponse is the wire shape shared by all three analytics
// endpoints. Key names are kept compatible with the original public API.
type AnalyticsResponse struct {
	TotalURLs    int                  `json:"totalUrls"`
	TotalClicks  int                  `json:"totalClicks"`
	UniqueUsers  int                  `json:"uniqueUsers"`
	ClicksByDate []DateCountResponse  `json:"clicksByDate"`
	OSType       []OSStatResponse     `json:"osType"`
	DeviceType   []DeviceStatResponse `json:"deviceType"`
}

// DateCountResponse is one histogram bucket.
type DateCountResponse struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// OSStatResponse is the per-OS breakdown entry.
type OSStatResponse struct {
	OSName       string `json:"osName"`
	UniqueClicks int    `json:"uniqueClicks"`
	UniqueUsers  int    `json:"uniqueUsers"`
}

// DeviceStatResponse is the per-device breakdown entry.
type DeviceStatResponse struct {
	DeviceName   string `json:"deviceName"`
	UniqueClicks int    `json:"uniqueClicks"`
	UniqueUsers  int    `json:"uniqueUsers"`
}

func newAnalyticsResponse(s *analytics.Summary) AnalyticsResponse {
	resp := AnalyticsResponse{
		TotalURLs:    s.TotalLinks,
		TotalClicks:  s.TotalClicks,
		UniqueUsers:  s.UniqueVisitors,
		ClicksByDate: make([]DateCountResponse, 0, len(s.ClicksByDate)),
		OSType:       make([]OSStatResponse, 0, len(s.OSBreakdown)),
		DeviceType:   make([]DeviceStatResponse, 0, len(s.DeviceBreakdown)),
	}
	for _, d := range s.ClicksByDate {
		resp.ClicksByDate = append(resp.ClicksByDate, DateCountResponse{Date: d.Date, Count: d.Count})
	}
	for _, o := range s.OSBreakdown {
		resp.OSType = append(resp.OSType, OSStatResponse{
			OSName:       o.Name,
			UniqueClicks: o.UniqueClicks,
			UniqueUsers:  o.UniqueUsers,
		})
	}
	for _, d := range s.DeviceBreakdown {
		resp.DeviceType = append(resp.DeviceType, DeviceStatResponse{
			DeviceName:   d.Name,
			UniqueClicks: d.UniqueClicks,
			UniqueUsers:  d.UniqueUsers,
		})
	}
	return resp
}

func userContext(c *fiber.Ctx) context.Context {
	if ctx := c.UserContext(); ctx != nil {
		return ctx
	}
	return context.Background()
}
