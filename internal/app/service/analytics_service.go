package service

import (
	"context"
	"fmt"
	"time"

	"github.com/linklytics/linklytics/internal/app/analytics"
	"github.com/linklytics/linklytics/internal/app/repository"
)

// aliasHistoryDays is the fixed histogram range for single-alias analytics.
const aliasHistoryDays = 7

// AnalyticsService answers analytics queries for the three supported
// scopes. All three run through the same aggregation engine; only the
// scope selector and the histogram window differ.
type AnalyticsService interface {
	AccountSummary(ctx context.Context, accountID uint) (*analytics.Summary, error)
	TopicSummary(ctx context.Context, topic string) (*analytics.Summary, error)
	AliasSummary(ctx context.Context, alias string) (*analytics.Summary, error)
}

type analyticsService struct {
	repo repository.AnalyticsRepository
	now  func() time.Time
}

// NewAnalyticsService returns a service backed by the given repository.
func NewAnalyticsService(repo repository.AnalyticsRepository) AnalyticsService {
	return &analyticsService{repo: repo, now: time.Now}
}

func (s *analyticsService) AccountSummary(ctx context.Context, accountID uint) (*analytics.Summary, error) {
	return s.summarize(ctx, analytics.AccountScope(accountID), analytics.AllTime())
}

func (s *analyticsService) TopicSummary(ctx context.Context, topic string) (*analytics.Summary, error) {
	return s.summarize(ctx, analytics.TopicScope(topic), analytics.AllTime())
}

func (s *analyticsService) AliasSummary(ctx context.Context, alias string) (*analytics.Summary, error) {
	scope := analytics.AliasScope(alias)

	linkCount, err := s.repo.LinkCountInScope(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("count links: %w", err)
	}
	if linkCount == 0 {
		return nil, repository.ErrLinkNotFound
	}

	events, err := s.repo.ClicksInScope(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("load clicks: %w", err)
	}

	summary := analytics.Aggregate(int(linkCount), events, analytics.TrailingDays(aliasHistoryDays, s.now()))
	return &summary, nil
}

func (s *analyticsService) summarize(ctx context.Context, scope analytics.Scope, window analytics.Window) (*analytics.Summary, error) {
	linkCount, err := s.repo.LinkCountInScope(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("count links: %w", err)
	}

	events, err := s.repo.ClicksInScope(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("load clicks: %w", err)
	}

	summary := analytics.Aggregate(int(linkCount), events, window)
	return &summary, nil
}
