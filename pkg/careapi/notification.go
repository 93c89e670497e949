package careapi

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/carematch360/portal/pkg/gateway"
)

// DefaultMetricDays is the window used by RecentMetrics when none is given.
const DefaultMetricDays = 30

// NotificationsAPI sends and reads user notifications.
type NotificationsAPI struct{ c caller }

func (n *NotificationsAPI) Send(ctx context.Context, payload any) (*gateway.Response, error) {
	return n.c.do(ctx, http.MethodPost, "/notifications", nil, payload)
}

func (n *NotificationsAPI) ForUser(ctx context.Context, userID string, p Pagination) (*gateway.Response, error) {
	return n.c.do(ctx, http.MethodGet, "/notifications/user"+seg(userID), p.values(), nil)
}

func (n *NotificationsAPI) Unread(ctx context.Context, userID string) (*gateway.Response, error) {
	return n.c.do(ctx, http.MethodGet, "/notifications/user"+seg(userID, "unread"), nil, nil)
}

func (n *NotificationsAPI) UnreadCount(ctx context.Context, userID string) (*gateway.Response, error) {
	return n.c.do(ctx, http.MethodGet, "/notifications/user"+seg(userID, "unread", "count"), nil, nil)
}

func (n *NotificationsAPI) MarkRead(ctx context.Context, notificationID string) (*gateway.Response, error) {
	return n.c.do(ctx, http.MethodPut, "/notifications"+seg(notificationID, "read"), nil, nil)
}

func (n *NotificationsAPI) MarkAllRead(ctx context.Context, userID string) (*gateway.Response, error) {
	return n.c.do(ctx, http.MethodPut, "/notifications/user"+seg(userID, "read-all"), nil, nil)
}

// AnalyticsAPI reads event logs and usage metrics.
type AnalyticsAPI struct{ c caller }

func (a *AnalyticsAPI) UserEvents(ctx context.Context, userID string, p Pagination) (*gateway.Response, error) {
	return a.c.do(ctx, http.MethodGet, "/analytics/events/user"+seg(userID), p.values(), nil)
}

func (a *AnalyticsAPI) EventsByType(ctx context.Context, eventType string) (*gateway.Response, error) {
	return a.c.do(ctx, http.MethodGet, "/analytics/events/type"+seg(eventType), nil, nil)
}

// EventsInRange returns events between start and end.
func (a *AnalyticsAPI) EventsInRange(ctx context.Context, start, end time.Time) (*gateway.Response, error) {
	return a.c.do(ctx, http.MethodGet, "/analytics/events/time-range", timeRange(start, end), nil)
}

// EventCounts returns event counts grouped by type between start and end.
func (a *AnalyticsAPI) EventCounts(ctx context.Context, start, end time.Time) (*gateway.Response, error) {
	return a.c.do(ctx, http.MethodGet, "/analytics/events/counts", timeRange(start, end), nil)
}

func (a *AnalyticsAPI) Metrics(ctx context.Context, name string) (*gateway.Response, error) {
	return a.c.do(ctx, http.MethodGet, "/analytics/metrics"+seg(name), nil, nil)
}

// RecentMetrics returns the named metric over the last days days. Zero or
// less means DefaultMetricDays.
func (a *AnalyticsAPI) RecentMetrics(ctx context.Context, name string, days int) (*gateway.Response, error) {
	if days <= 0 {
		days = DefaultMetricDays
	}
	q := url.Values{"days": {strconv.Itoa(days)}}
	return a.c.do(ctx, http.MethodGet, "/analytics/metrics"+seg(name, "recent"), q, nil)
}

func (a *AnalyticsAPI) Report(ctx context.Context) (*gateway.Response, error) {
	return a.c.do(ctx, http.MethodGet, "/analytics/report", nil, nil)
}

// timeRange formats bounds as local date-times without zone, which is what
// the analytics backend parses.
func timeRange(start, end time.Time) url.Values {
	const layout = "2006-01-02T15:04:05"
	return url.Values{
		"start": {start.Format(layout)},
		"end":   {end.Format(layout)},
	}
}
