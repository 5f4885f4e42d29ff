package handler

import (
	"context"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/linklytics/linklytics/internal/app/model"
	"github.com/linklytics/linklytics/internal/app/repository"
)

type fakeResolver struct {
	links map[string]*model.Link
}

func (f *fakeResolver) Resolve(_ context.Context, code string) (*model.Link, error) {
	link, ok := f.links[code]
	if !ok {
		return nil, repository.ErrLinkNotFound
	}
	return link, nil
}

type fakeRecorder struct {
	published chan string
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{published: make(chan string, 1)}
}

func (f *fakeRecorder) Publish(_ context.Context, code, _, _, _ string) error {
	f.published <- code
	return nil
}

func newRedirectApp(resolver LinkResolver, recorder ClickRecorder) *fiber.App {
	app := fiber.New()
	h := NewRedirectHandler(RedirectDeps{
		Links:  resolver,
		Clicks: recorder,
	})
	h.Register(app)
	return app
}

func TestResolveRedirectsAndRecordsClick(t *testing.T) {
	recorder := newFakeRecorder()
	app := newRedirectApp(&fakeResolver{links: map[string]*model.Link{
		"abc12345": {ShortCode: "abc12345", LongURL: "https://example.com/page"},
	}}, recorder)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/shorten/abc12345", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusFound {
		t.Fatalf("status = %d, want %d", resp.StatusCode, fiber.StatusFound)
	}
	if got := resp.Header.Get("Location"); got != "https://example.com/page" {
		t.Fatalf("Location = %q, want original URL", got)
	}

	select {
	case code := <-recorder.published:
		if code != "abc12345" {
			t.Fatalf("published code = %q, want abc12345", code)
		}
	case <-time.After(time.Second):
		t.Fatal("click was never published")
	}
}

func TestResolveUnknownAliasReturns404(t *testing.T) {
	recorder := newFakeRecorder()
	app := newRedirectApp(&fakeResolver{links: map[string]*model.Link{}}, recorder)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/shorten/missing1", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}

	body, _ := io.ReadAll(resp.Body)
	if string(body) != "Short URL not found" {
		t.Fatalf("body = %q, want plain not-found text", body)
	}
	if len(recorder.published) != 0 {
		t.Fatal("click published for unknown alias")
	}
}

func TestHealthEndpoint(t *testing.T) {
	app := newRedirectApp(&fakeResolver{}, nil)

	resp, err := app.Test(httptest.NewRequest("GET", "/health", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
}
