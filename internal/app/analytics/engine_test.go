package analytics

import (
	"testing"
	"time"

	"github.com/linklytics/linklytics/internal/app/model"
)

func click(ip, os, device string, ts time.Time) model.ClickEvent {
	return model.ClickEvent{
		VisitorIP:  ip,
		OSType:     os,
		DeviceType: device,
		Timestamp:  ts,
	}
}

func TestAggregate_EmptyScope(t *testing.T) {
	summary := Aggregate(0, nil, AllTime())

	if summary.TotalLinks != 0 || summary.TotalClicks != 0 || summary.UniqueVisitors != 0 {
		t.Fatalf("expected zero counts, got %+v", summary)
	}
	if len(summary.ClicksByDate) != 0 {
		t.Fatalf("expected empty histogram, got %v", summary.ClicksByDate)
	}
	if len(summary.OSBreakdown) != 0 || len(summary.DeviceBreakdown) != 0 {
		t.Fatalf("expected empty breakdowns, got %+v", summary)
	}
}

func TestAggregate_UniqueVisitorsDedupesByIP(t *testing.T) {
	ts := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	events := []model.ClickEvent{
		click("1.1.1.1", "Windows", model.DeviceDesktop, ts),
		click("1.1.1.1", "Linux", model.DeviceMobile, ts.Add(time.Hour)),
		click("2.2.2.2", "Windows", model.DeviceDesktop, ts),
	}

	summary := Aggregate(1, events, AllTime())

	if summary.TotalClicks != 3 {
		t.Fatalf("expected 3 total clicks, got %d", summary.TotalClicks)
	}
	if summary.UniqueVisitors != 2 {
		t.Fatalf("expected 2 unique visitors, got %d", summary.UniqueVisitors)
	}
}

// Three clicks on one date from IPs {A,A,B} with OS {Windows,Windows,Linux}
// must produce totalClicks=3, uniqueVisitors=2 and per-OS stats where
// uniqueClicks is a raw event count.
func TestAggregate_OSBreakdownCountsEvents(t *testing.T) {
	ts := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	events := []model.ClickEvent{
		click("A", "Windows", model.DeviceDesktop, ts),
		click("A", "Windows", model.DeviceDesktop, ts.Add(time.Minute)),
		click("B", "Linux", model.DeviceDesktop, ts.Add(2*time.Minute)),
	}

	summary := Aggregate(1, events, AllTime())

	if summary.TotalClicks != 3 {
		t.Fatalf("expected totalClicks=3, got %d", summary.TotalClicks)
	}
	if summary.UniqueVisitors != 2 {
		t.Fatalf("expected uniqueVisitors=2, got %d", summary.UniqueVisitors)
	}

	if len(summary.OSBreakdown) != 2 {
		t.Fatalf("expected 2 OS entries, got %+v", summary.OSBreakdown)
	}
	byName := make(map[string]DimensionStat)
	for _, stat := range summary.OSBreakdown {
		byName[stat.Name] = stat
	}
	windows := byName["Windows"]
	if windows.UniqueClicks != 2 || windows.UniqueUsers != 1 {
		t.Fatalf("Windows: expected uniqueClicks=2 uniqueUsers=1, got %+v", windows)
	}
	linux := byName["Linux"]
	if linux.UniqueClicks != 1 || linux.UniqueUsers != 1 {
		t.Fatalf("Linux: expected uniqueClicks=1 uniqueUsers=1, got %+v", linux)
	}
}

func TestAggregate_DuplicateDeliveryCountsTwice(t *testing.T) {
	// At-least-once delivery may append the same visit twice; the totals
	// reflect both copies while visitor cardinality does not.
	ts := time.Date(2024, 3, 5, 8, 30, 0, 0, time.UTC)
	ev := click("9.9.9.9", "Android", model.DeviceMobile, ts)

	summary := Aggregate(1, []model.ClickEvent{ev, ev}, AllTime())

	if summary.TotalClicks != 2 {
		t.Fatalf("expected totalClicks=2 under duplicate delivery, got %d", summary.TotalClicks)
	}
	if summary.UniqueVisitors != 1 {
		t.Fatalf("expected uniqueVisitors=1, got %d", summary.UniqueVisitors)
	}
	if len(summary.ClicksByDate) != 1 || summary.ClicksByDate[0].Count != 2 {
		t.Fatalf("expected one date with count 2, got %v", summary.ClicksByDate)
	}
}

func TestAggregate_TrailingWindowZeroFills(t *testing.T) {
	now := time.Date(2024, 6, 10, 15, 0, 0, 0, time.UTC)
	events := []model.ClickEvent{
		click("A", "Windows", model.DeviceDesktop, now.AddDate(0, 0, -1)),
		click("B", "Windows", model.DeviceDesktop, now.AddDate(0, 0, -1)),
		click("C", "macOS", model.DeviceDesktop, now),
	}

	summary := Aggregate(1, events, TrailingDays(7, now))

	if len(summary.ClicksByDate) != 7 {
		t.Fatalf("expected exactly 7 histogram entries, got %d", len(summary.ClicksByDate))
	}
	if first := summary.ClicksByDate[0].Date; first != "2024-06-04" {
		t.Fatalf("expected window to start at 2024-06-04, got %s", first)
	}
	if last := summary.ClicksByDate[6]; last.Date != "2024-06-10" || last.Count != 1 {
		t.Fatalf("expected 1 click today, got %+v", last)
	}
	if yesterday := summary.ClicksByDate[5]; yesterday.Count != 2 {
		t.Fatalf("expected 2 clicks yesterday, got %+v", yesterday)
	}
	for _, entry := range summary.ClicksByDate[:5] {
		if entry.Count != 0 {
			t.Fatalf("expected zero-filled entry, got %+v", entry)
		}
	}
}

func TestAggregate_UnboundedWindowSkipsEmptyDates(t *testing.T) {
	events := []model.ClickEvent{
		click("A", "Windows", model.DeviceDesktop, time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)),
		click("B", "Windows", model.DeviceDesktop, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)),
	}

	summary := Aggregate(2, events, AllTime())

	if len(summary.ClicksByDate) != 2 {
		t.Fatalf("expected only dates with clicks, got %v", summary.ClicksByDate)
	}
	if summary.ClicksByDate[0].Date != "2023-01-01" || summary.ClicksByDate[1].Date != "2024-01-01" {
		t.Fatalf("expected ascending dates, got %v", summary.ClicksByDate)
	}
}

func TestAggregate_HistogramUsesUTCDay(t *testing.T) {
	// 23:30 in UTC-5 is the next day in UTC.
	loc := time.FixedZone("UTC-5", -5*60*60)
	events := []model.ClickEvent{
		click("A", "Windows", model.DeviceDesktop, time.Date(2024, 2, 1, 23, 30, 0, 0, loc)),
	}

	summary := Aggregate(1, events, AllTime())

	if summary.ClicksByDate[0].Date != "2024-02-02" {
		t.Fatalf("expected UTC date 2024-02-02, got %s", summary.ClicksByDate[0].Date)
	}
}
