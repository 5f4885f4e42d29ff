package analytics

import (
	"sort"
	"time"

	"github.com/linklytics/linklytics/internal/app/model"
)

const dateLayout = "2006-01-02"

// Summary is the aggregated result of one analytics query.
type Summary struct {
	// TotalLinks is the number of links in scope, independent of click data.
	TotalLinks int
	// TotalClicks counts every event in scope, duplicates included.
	TotalClicks int
	// UniqueVisitors is the number of distinct visitor IPs in scope.
	UniqueVisitors int
	// ClicksByDate maps UTC calendar dates to event counts, ascending.
	ClicksByDate []DateCount
	// OSBreakdown and DeviceBreakdown group events by the classified
	// dimension value.
	OSBreakdown     []DimensionStat
	DeviceBreakdown []DimensionStat
}

// DateCount is one entry of a per-date click histogram.
type DateCount struct {
	Date  string
	Count int
}

// DimensionStat describes the events carrying one value of a categorical
// dimension (OS or device type).
//
// UniqueClicks is the total number of events with this value, not a
// deduplicated figure. The name is historical and kept for wire
// compatibility with the consumers of the original API.
type DimensionStat struct {
	Name         string
	UniqueClicks int
	UniqueUsers  int
}

// Window bounds the ClicksByDate histogram. It never restricts the totals
// or the dimension breakdowns, which always cover the whole scope.
type Window struct {
	days int
	end  time.Time
}

// TrailingDays returns a window of exactly n calendar days ending on the
// UTC day of now. Dates without clicks appear with a zero count.
func TrailingDays(n int, now time.Time) Window {
	return Window{days: n, end: now.UTC()}
}

// AllTime returns an unbounded window: every date with at least one click
// appears, with no zero-filled gaps.
func AllTime() Window {
	return Window{}
}

// Aggregate reduces the click events of one scope into a Summary. It is a
// pure function: callers fetch the population (link count plus flattened
// events) and choose the histogram window per scope.
//
// An empty population yields a zero summary, never an error.
func Aggregate(totalLinks int, events []model.ClickEvent, window Window) Summary {
	summary := Summary{
		TotalLinks:  totalLinks,
		TotalClicks: len(events),
	}

	visitors := make(map[string]struct{})
	byDate := make(map[string]int)
	osDim := newDimension()
	deviceDim := newDimension()

	for _, ev := range events {
		visitors[ev.VisitorIP] = struct{}{}
		byDate[ev.Timestamp.UTC().Format(dateLayout)]++
		osDim.add(ev.OSType, ev.VisitorIP)
		deviceDim.add(ev.DeviceType, ev.VisitorIP)
	}

	summary.UniqueVisitors = len(visitors)
	summary.ClicksByDate = window.histogram(byDate)
	summary.OSBreakdown = osDim.stats()
	summary.DeviceBreakdown = deviceDim.stats()

	return summary
}

func (w Window) histogram(byDate map[string]int) []DateCount {
	if w.days > 0 {
		// Fixed range: one entry per day, oldest first, zero-filled.
		out := make([]DateCount, 0, w.days)
		for i := w.days - 1; i >= 0; i-- {
			date := w.end.AddDate(0, 0, -i).Format(dateLayout)
			out = append(out, DateCount{Date: date, Count: byDate[date]})
		}
		return out
	}

	out := make([]DateCount, 0, len(byDate))
	for date, count := range byDate {
		out = append(out, DateCount{Date: date, Count: count})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

type dimension struct {
	counts map[string]int
	users  map[string]map[string]struct{}
}

func newDimension() *dimension {
	return &dimension{
		counts: make(map[string]int),
		users:  make(map[string]map[string]struct{}),
	}
}

func (d *dimension) add(name, visitorIP string) {
	d.counts[name]++
	set, ok := d.users[name]
	if !ok {
		set = make(map[string]struct{})
		d.users[name] = set
	}
	set[visitorIP] = struct{}{}
}

func (d *dimension) stats() []DimensionStat {
	out := make([]DimensionStat, 0, len(d.counts))
	for name, count := range d.counts {
		out = append(out, DimensionStat{
			Name:         name,
			UniqueClicks: count,
			UniqueUsers:  len(d.users[name]),
		})
	}
	// Entries are an unordered set; sorting only keeps responses stable.
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
