package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/linklytics/linklytics/internal/app/analytics"
	"github.com/linklytics/linklytics/internal/app/model"
)

// AnalyticsRepository is the read-side contract for analytics queries. It
// always reads the authoritative store, never the lookup cache, so results
// are a snapshot at query time.
type AnalyticsRepository interface {
	// ClicksInScope returns the flattened click events of every link the
	// scope selects, restricted to the fields the aggregation engine uses.
	ClicksInScope(ctx context.Context, scope analytics.Scope) ([]model.ClickEvent, error)
	// LinkCountInScope counts the links the scope selects, independent of
	// click data.
	LinkCountInScope(ctx context.Context, scope analytics.Scope) (int64, error)
}

type analyticsRepository struct {
	pool *pgxpool.Pool
}

// NewAnalyticsRepository returns a pgx-backed AnalyticsRepository.
func NewAnalyticsRepository(pool *pgxpool.Pool) AnalyticsRepository {
	return &analyticsRepository{pool: pool}
}

func (r *analyticsRepository) ClicksInScope(ctx context.Context, scope analytics.Scope) ([]model.ClickEvent, error) {
	query, arg, err := clicksQuery(scope)
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("analytics: query clicks: %w", err)
	}
	defer rows.Close()

	var events []model.ClickEvent
	for rows.Next() {
		var ev model.ClickEvent
		if err := rows.Scan(&ev.VisitorIP, &ev.Timestamp, &ev.OSType, &ev.DeviceType); err != nil {
			return nil, fmt.Errorf("analytics: scan click: %w", err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("analytics: read clicks: %w", err)
	}

	return events, nil
}

func (r *analyticsRepository) LinkCountInScope(ctx context.Context, scope analytics.Scope) (int64, error) {
	query, arg, err := linkCountQuery(scope)
	if err != nil {
		return 0, err
	}

	var count int64
	if err := r.pool.QueryRow(ctx, query, arg).Scan(&count); err != nil {
		if err == pgx.ErrNoRows {
			return 0, nil
		}
		return 0, fmt.Errorf("analytics: count links: %w", err)
	}
	return count, nil
}

func clicksQuery(scope analytics.Scope) (string, any, error) {
	const selectClicks = `SELECT c.visitor_ip, c.timestamp, c.os_type, c.device_type
FROM click_events c`

	switch scope.Kind {
	case analytics.ScopeAccount:
		return selectClicks + `
JOIN links l ON l.short_code = c.short_code
WHERE l.account_id = $1`, scope.AccountID, nil
	case analytics.ScopeTopic:
		return selectClicks + `
JOIN links l ON l.short_code = c.short_code
WHERE l.topic = $1`, scope.Topic, nil
	case analytics.ScopeAlias:
		return selectClicks + `
WHERE c.short_code = $1`, scope.Alias, nil
	default:
		return "", nil, fmt.Errorf("analytics: unsupported scope kind %d", scope.Kind)
	}
}

func linkCountQuery(scope analytics.Scope) (string, any, error) {
	switch scope.Kind {
	case analytics.ScopeAccount:
		return `SELECT COUNT(*) FROM links WHERE account_id = $1`, scope.AccountID, nil
	case analytics.ScopeTopic:
		return `SELECT COUNT(*) FROM links WHERE topic = $1`, scope.Topic, nil
	case analytics.ScopeAlias:
		return `SELECT COUNT(*) FROM links WHERE short_code = $1`, scope.Alias, nil
	default:
		return "", nil, fmt.Errorf("analytics: unsupported scope kind %d", scope.Kind)
	}
}
