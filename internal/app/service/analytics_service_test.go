package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/linklytics/linklytics/internal/app/analytics"
	"github.com/linklytics/linklytics/internal/app/model"
	"github.com/linklytics/linklytics/internal/app/repository"
)

type mockAnalyticsRepository struct {
	clicksFn func(ctx context.Context, scope analytics.Scope) ([]model.ClickEvent, error)
	countFn  func(ctx context.Context, scope analytics.Scope) (int64, error)
}

func (m *mockAnalyticsRepository) ClicksInScope(ctx context.Context, scope analytics.Scope) ([]model.ClickEvent, error) {
	if m.clicksFn != nil {
		return m.clicksFn(ctx, scope)
	}
	return nil, nil
}

func (m *mockAnalyticsRepository) LinkCountInScope(ctx context.Context, scope analytics.Scope) (int64, error) {
	if m.countFn != nil {
		return m.countFn(ctx, scope)
	}
	return 0, nil
}

func TestAnalyticsService_AccountSummary_EmptyScope(t *testing.T) {
	svc := NewAnalyticsService(&mockAnalyticsRepository{})

	summary, err := svc.AccountSummary(context.Background(), 42)
	if err != nil {
		t.Fatalf("AccountSummary returned error: %v", err)
	}
	if summary.TotalLinks != 0 || summary.TotalClicks != 0 || summary.UniqueVisitors != 0 {
		t.Fatalf("expected zero summary, got %+v", summary)
	}
}

func TestAnalyticsService_AccountSummary_SelectsAccountScope(t *testing.T) {
	var seen analytics.Scope
	repo := &mockAnalyticsRepository{
		countFn: func(ctx context.Context, scope analytics.Scope) (int64, error) {
			seen = scope
			return 3, nil
		},
	}

	svc := NewAnalyticsService(repo)
	summary, err := svc.AccountSummary(context.Background(), 42)
	if err != nil {
		t.Fatalf("AccountSummary returned error: %v", err)
	}
	if seen.Kind != analytics.ScopeAccount || seen.AccountID != 42 {
		t.Fatalf("expected account scope for id 42, got %+v", seen)
	}
	if summary.TotalLinks != 3 {
		t.Fatalf("expected 3 links, got %d", summary.TotalLinks)
	}
}

func TestAnalyticsService_TopicSummary_NormalisesTopic(t *testing.T) {
	var seen analytics.Scope
	repo := &mockAnalyticsRepository{
		countFn: func(ctx context.Context, scope analytics.Scope) (int64, error) {
			seen = scope
			return 1, nil
		},
	}

	svc := NewAnalyticsService(repo)
	if _, err := svc.TopicSummary(context.Background(), "Marketing"); err != nil {
		t.Fatalf("TopicSummary returned error: %v", err)
	}
	if seen.Kind != analytics.ScopeTopic || seen.Topic != "marketing" {
		t.Fatalf("expected lower-cased topic scope, got %+v", seen)
	}
}

func TestAnalyticsService_AliasSummary_UnknownAlias(t *testing.T) {
	repo := &mockAnalyticsRepository{
		countFn: func(ctx context.Context, scope analytics.Scope) (int64, error) {
			return 0, nil
		},
	}

	svc := NewAnalyticsService(repo)
	_, err := svc.AliasSummary(context.Background(), "missing")
	if !errors.Is(err, repository.ErrLinkNotFound) {
		t.Fatalf("expected ErrLinkNotFound, got %v", err)
	}
}

func TestAnalyticsService_AliasSummary_UsesTrailingWeek(t *testing.T) {
	now := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)
	repo := &mockAnalyticsRepository{
		countFn: func(ctx context.Context, scope analytics.Scope) (int64, error) {
			return 1, nil
		},
		clicksFn: func(ctx context.Context, scope analytics.Scope) ([]model.ClickEvent, error) {
			return []model.ClickEvent{
				{VisitorIP: "A", OSType: "Windows", DeviceType: model.DeviceDesktop, Timestamp: now},
			}, nil
		},
	}

	svc := &analyticsService{repo: repo, now: func() time.Time { return now }}
	summary, err := svc.AliasSummary(context.Background(), "abc123xy")
	if err != nil {
		t.Fatalf("AliasSummary returned error: %v", err)
	}
	if len(summary.ClicksByDate) != aliasHistoryDays {
		t.Fatalf("expected %d-day histogram, got %d entries", aliasHistoryDays, len(summary.ClicksByDate))
	}
	if summary.TotalClicks != 1 || summary.UniqueVisitors != 1 {
		t.Fatalf("unexpected totals: %+v", summary)
	}
}

func TestAnalyticsService_AliasSummary_AppendedClicksAreCounted(t *testing.T) {
	// N events appended by the click writer must show up as totalClicks == N.
	now := time.Now().UTC()
	const n = 5
	events := make([]model.ClickEvent, 0, n)
	for i := 0; i < n; i++ {
		events = append(events, model.ClickEvent{
			VisitorIP:  "10.0.0.1",
			OSType:     "Linux",
			DeviceType: model.DeviceDesktop,
			Timestamp:  now,
		})
	}

	repo := &mockAnalyticsRepository{
		countFn: func(ctx context.Context, scope analytics.Scope) (int64, error) {
			return 1, nil
		},
		clicksFn: func(ctx context.Context, scope analytics.Scope) ([]model.ClickEvent, error) {
			return events, nil
		},
	}

	svc := NewAnalyticsService(repo)
	summary, err := svc.AliasSummary(context.Background(), "abc123xy")
	if err != nil {
		t.Fatalf("AliasSummary returned error: %v", err)
	}
	if summary.TotalClicks != n {
		t.Fatalf("expected totalClicks=%d, got %d", n, summary.TotalClicks)
	}
}
