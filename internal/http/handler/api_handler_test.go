package handler

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/linklytics/linklytics/internal/app/analytics"
	"github.com/linklytics/linklytics/internal/app/model"
	"github.com/linklytics/linklytics/internal/app/repository"
	"github.com/linklytics/linklytics/internal/app/service"
	"github.com/linklytics/linklytics/internal/http/middleware"
)

type mockLinkService struct {
	shortenFn func(ctx context.Context, input service.ShortenInput) (*model.Link, error)
}

func (m *mockLinkService) Shorten(ctx context.Context, input service.ShortenInput) (*model.Link, error) {
	return m.shortenFn(ctx, input)
}

type mockAnalyticsService struct {
	accountFn func(ctx context.Context, accountID uint) (*analytics.Summary, error)
	topicFn   func(ctx context.Context, topic string) (*analytics.Summary, error)
	aliasFn   func(ctx context.Context, alias string) (*analytics.Summary, error)
}

func (m *mockAnalyticsService) AccountSummary(ctx context.Context, accountID uint) (*analytics.Summary, error) {
	return m.accountFn(ctx, accountID)
}

func (m *mockAnalyticsService) TopicSummary(ctx context.Context, topic string) (*analytics.Summary, error) {
	return m.topicFn(ctx, topic)
}

func (m *mockAnalyticsService) AliasSummary(ctx context.Context, alias string) (*analytics.Summary, error) {
	return m.aliasFn(ctx, alias)
}

// newAPIApp builds a fiber app where auth always succeeds with account 7
// and the rate limiter is a pass-through.
func newAPIApp(links service.LinkService, stats service.AnalyticsService) *fiber.App {
	app := fiber.New()
	h := NewAPIHandler(APIDeps{
		LinkService:      links,
		AnalyticsService: stats,
		BaseURL:          "http://sho.rt",
	})

	passAuth := func(c *fiber.Ctx) error {
		c.Locals(middleware.AccountLocalKey, &model.Account{ID: 7})
		return c.Next()
	}
	noLimit := func(c *fiber.Ctx) error { return c.Next() }

	h.Register(app, passAuth, noLimit)
	return app
}

func TestShortenCreatesLinkForAccount(t *testing.T) {
	var got service.ShortenInput
	links := &mockLinkService{
		shortenFn: func(_ context.Context, input service.ShortenInput) (*model.Link, error) {
			got = input
			return &model.Link{ShortCode: "abc12345", LongURL: input.LongURL, AccountID: input.AccountID}, nil
		},
	}
	app := newAPIApp(links, &mockAnalyticsService{})

	req := httptest.NewRequest("POST", "/api/shorten",
		strings.NewReader(`{"longUrl":"https://example.com","topic":"News"}`))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}
	if got.AccountID != 7 {
		t.Fatalf("AccountID = %d, want the authenticated account", got.AccountID)
	}

	var body ShortenResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.ShortURL != "http://sho.rt/abc12345" {
		t.Fatalf("shortUrl = %q", body.ShortURL)
	}
}

func TestShortenRequiresLongURL(t *testing.T) {
	app := newAPIApp(&mockLinkService{}, &mockAnalyticsService{})

	req := httptest.NewRequest("POST", "/api/shorten", strings.NewReader(`{"topic":"news"}`))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestShortenReportsTakenAlias(t *testing.T) {
	links := &mockLinkService{
		shortenFn: func(_ context.Context, _ service.ShortenInput) (*model.Link, error) {
			return nil, repository.ErrAliasTaken
		},
	}
	app := newAPIApp(links, &mockAnalyticsService{})

	req := httptest.NewRequest("POST", "/api/shorten",
		strings.NewReader(`{"longUrl":"https://example.com","customAlias":"mine"}`))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}

	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !strings.Contains(body["error"], "already exists") {
		t.Fatalf("error = %q, want alias-taken message", body["error"])
	}
}

func TestOverallAnalyticsUsesAccountScope(t *testing.T) {
	var askedAccount uint
	stats := &mockAnalyticsService{
		accountFn: func(_ context.Context, accountID uint) (*analytics.Summary, error) {
			askedAccount = accountID
			return &analytics.Summary{
				TotalLinks:     3,
				TotalClicks:    10,
				UniqueVisitors: 4,
			}, nil
		},
	}
	app := newAPIApp(&mockLinkService{}, stats)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/analytics/overall", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if askedAccount != 7 {
		t.Fatalf("queried account = %d, want 7", askedAccount)
	}

	var body AnalyticsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.TotalURLs != 3 || body.TotalClicks != 10 || body.UniqueUsers != 4 {
		t.Fatalf("unexpected totals: %+v", body)
	}
	if body.ClicksByDate == nil || body.OSType == nil || body.DeviceType == nil {
		t.Fatal("breakdown arrays must be present even when empty")
	}
}

func TestAliasAnalyticsUnknownAliasReturns404(t *testing.T) {
	stats := &mockAnalyticsService{
		aliasFn: func(_ context.Context, _ string) (*analytics.Summary, error) {
			return nil, repository.ErrLinkNotFound
		},
	}
	app := newAPIApp(&mockLinkService{}, stats)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/analytics/nope1234", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}

func TestTopicAnalyticsPassesTopic(t *testing.T) {
	var askedTopic string
	stats := &mockAnalyticsService{
		topicFn: func(_ context.Context, topic string) (*analytics.Summary, error) {
			askedTopic = topic
			return &analytics.Summary{TotalLinks: 1}, nil
		},
	}
	app := newAPIApp(&mockLinkService{}, stats)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/analytics/topic/news", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if askedTopic != "news" {
		t.Fatalf("topic = %q, want news", askedTopic)
	}
}
