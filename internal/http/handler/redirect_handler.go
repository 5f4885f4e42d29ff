package handler

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/linklytics/linklytics/internal/app/model"
	"github.com/linklytics/linklytics/internal/app/repository"
	infraprom "github.com/linklytics/linklytics/internal/infra/prometheus"
	"go.uber.org/zap"
)

// LinkResolver looks up the link behind an alias. The cache satisfies it
// on the hot path; a bare repository works too.
type LinkResolver interface {
	Resolve(ctx context.Context, code string) (*model.Link, error)
}

// ClickRecorder accepts one click observation for asynchronous recording.
type ClickRecorder interface {
	Publish(ctx context.Context, code, ip, userAgent, referrer string) error
}

// RedirectDeps groups dependencies required by redirect handlers.
type RedirectDeps struct {
	Logger *zap.Logger
	Links  LinkResolver
	Clicks ClickRecorder
}

// RedirectHandler implements the public redirect flow.
type RedirectHandler struct {
	logger *zap.Logger
	links  LinkResolver
	clicks ClickRecorder
}

// NewRedirectHandler creates a redirect handler with the provided dependencies.
func NewRedirectHandler(deps RedirectDeps) *RedirectHandler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedirectHandler{
		logger: logger,
		links:  deps.Links,
		clicks: deps.Clicks,
	}
}

// Register wires redirect routes onto the provided router.
func (h *RedirectHandler) Register(router fiber.Router) {
	router.Get("/", h.Health)
	router.Get("/health", h.Health)
	router.Get("/api/shorten/:alias", h.Resolve)
}

// Health is a simple root endpoint so we know the service is running.
func (h *RedirectHandler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"service": "linklytics",
		"status":  "ok",
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

// Resolve handles GET /api/shorten/:alias and issues the redirect.
func (h *RedirectHandler) Resolve(c *fiber.Ctx) error {
	alias := c.Params("alias")
	if alias == "" {
		infraprom.Redirects.WithLabelValues("not_found").Inc()
		return c.Status(fiber.StatusNotFound).SendString("Short URL not found")
	}

	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}

	link, err := h.links.Resolve(ctx, alias)
	if err != nil {
		if errors.Is(err, repository.ErrLinkNotFound) {
			infraprom.Redirects.WithLabelValues("not_found").Inc()
			return c.Status(fiber.StatusNotFound).SendString("Short URL not found")
		}
		h.logger.Error("failed to resolve alias", zap.Error(err), zap.String("alias", alias))
		infraprom.Redirects.WithLabelValues("error").Inc()
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "internal server error",
		})
	}

	// Copy request values before handing them to the goroutine; the
	// fiber context is recycled once the handler returns.
	if h.clicks != nil {
		ip := c.IP()
		userAgent := c.Get(fiber.HeaderUserAgent)
		referrer := c.Get(fiber.HeaderReferer)
		go h.recordClick(alias, ip, userAgent, referrer)
	}

	infraprom.Redirects.WithLabelValues("found").Inc()
	h.logger.Debug("redirecting short link", zap.String("alias", alias), zap.String("target", link.LongURL))
	return c.Redirect(link.LongURL, fiber.StatusFound)
}

func (h *RedirectHandler) recordClick(alias, ip, userAgent, referrer string) {
	if err := h.clicks.Publish(context.Background(), alias, ip, userAgent, referrer); err != nil {
		h.logger.Error("failed to publish click event", zap.Error(err), zap.String("alias", alias))
	}
}
