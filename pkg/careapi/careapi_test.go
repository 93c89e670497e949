package careapi_test

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/carematch360/portal/pkg/careapi"
	"github.com/carematch360/portal/pkg/gateway"
)

// recorder captures requests instead of sending them.
type recorder struct {
	reqs []gateway.Request
}

func (r *recorder) Dispatch(_ context.Context, req gateway.Request) (*gateway.Response, error) {
	r.reqs = append(r.reqs, req)
	return &gateway.Response{StatusCode: http.StatusOK}, nil
}

func (r *recorder) last(t *testing.T) gateway.Request {
	t.Helper()
	require.NotEmpty(t, r.reqs)
	return r.reqs[len(r.reqs)-1]
}

func TestClient_Routes(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	start := time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)

	tests := []struct {
		name   string
		call   func(*careapi.Client) error
		target gateway.Target
		method string
		path   string
		query  url.Values
		body   string
	}{
		{
			name:   "verify email",
			call:   func(c *careapi.Client) error { _, err := c.Auth.VerifyEmail(ctx, "tok"); return err },
			target: gateway.TargetIdentity, method: http.MethodPost, path: "/auth/verify-email",
			body: `{"token":"tok"}`,
		},
		{
			name:   "user by email escapes segment",
			call:   func(c *careapi.Client) error { _, err := c.Users.ByEmail(ctx, "a/b@test.com"); return err },
			target: gateway.TargetIdentity, method: http.MethodGet, path: "/users/email/a%2Fb@test.com",
		},
		{
			name:   "deactivate user",
			call:   func(c *careapi.Client) error { _, err := c.Users.Deactivate(ctx, "u1"); return err },
			target: gateway.TargetIdentity, method: http.MethodPut, path: "/users/u1/deactivate",
		},
		{
			name:   "two factor enable",
			call:   func(c *careapi.Client) error { _, err := c.TwoFactor.Enable(ctx, "123456"); return err },
			target: gateway.TargetIdentity, method: http.MethodPost, path: "/auth/2fa/enable",
			body: `{"code":"123456"}`,
		},
		{
			name:   "patient me",
			call:   func(c *careapi.Client) error { _, err := c.Patients.Me(ctx); return err },
			target: gateway.TargetProfile, method: http.MethodGet, path: "/patients/me",
		},
		{
			name:   "provider delete document",
			call:   func(c *careapi.Client) error { _, err := c.Providers.DeleteDocument(ctx, "d9"); return err },
			target: gateway.TargetProfile, method: http.MethodDelete, path: "/providers/documents/d9",
		},
		{
			name: "provider search",
			call: func(c *careapi.Client) error {
				_, err := c.Providers.Search(ctx, map[string]string{"city": "Wien"})
				return err
			},
			target: gateway.TargetProfile, method: http.MethodPost, path: "/providers/search",
			body: `{"city":"Wien"}`,
		},
		{
			name:   "file info",
			call:   func(c *careapi.Client) error { _, err := c.Files.Info(ctx, "a2V5"); return err },
			target: gateway.TargetProfile, method: http.MethodGet, path: "/files/info/a2V5",
		},
		{
			name:   "calculate match",
			call:   func(c *careapi.Client) error { _, err := c.Matches.Calculate(ctx, "p1", "v1"); return err },
			target: gateway.TargetMatch, method: http.MethodPost, path: "/matches/calculate",
			query: url.Values{"patientId": {"p1"}, "providerId": {"v1"}},
		},
		{
			name:   "top matches default limit",
			call:   func(c *careapi.Client) error { _, err := c.Matches.TopMatches(ctx, "p1", 0); return err },
			target: gateway.TargetMatch, method: http.MethodGet, path: "/matches/patient/p1/top",
			query: url.Values{"limit": {"10"}},
		},
		{
			name: "patient matches default page",
			call: func(c *careapi.Client) error {
				_, err := c.Matches.PatientMatches(ctx, "p1", careapi.Pagination{})
				return err
			},
			target: gateway.TargetMatch, method: http.MethodGet, path: "/matches/patient/p1",
			query: url.Values{"page": {"0"}, "size": {"20"}},
		},
		{
			name:   "specific match",
			call:   func(c *careapi.Client) error { _, err := c.Matches.Match(ctx, "p1", "v1"); return err },
			target: gateway.TargetMatch, method: http.MethodGet, path: "/matches/patient/p1/provider/v1",
		},
		{
			name:   "accept offer",
			call:   func(c *careapi.Client) error { _, err := c.Offers.Accept(ctx, "o1"); return err },
			target: gateway.TargetMatch, method: http.MethodPut, path: "/offers/o1/accept",
		},
		{
			name: "provider offers page",
			call: func(c *careapi.Client) error {
				_, err := c.Offers.ProviderOffers(ctx, "v1", careapi.Pagination{Page: 2, Size: 5})
				return err
			},
			target: gateway.TargetMatch, method: http.MethodGet, path: "/offers/provider/v1",
			query: url.Values{"page": {"2"}, "size": {"5"}},
		},
		{
			name:   "cancel subscription",
			call:   func(c *careapi.Client) error { _, err := c.Subscriptions.Cancel(ctx, "s1"); return err },
			target: gateway.TargetBilling, method: http.MethodDelete, path: "/subscriptions/s1",
		},
		{
			name:   "invoice by number",
			call:   func(c *careapi.Client) error { _, err := c.Invoices.ByNumber(ctx, "INV-2025-001"); return err },
			target: gateway.TargetBilling, method: http.MethodGet, path: "/invoices/number/INV-2025-001",
		},
		{
			name:   "unread count",
			call:   func(c *careapi.Client) error { _, err := c.Notifications.UnreadCount(ctx, "u1"); return err },
			target: gateway.TargetNotification, method: http.MethodGet, path: "/notifications/user/u1/unread/count",
		},
		{
			name:   "mark all read",
			call:   func(c *careapi.Client) error { _, err := c.Notifications.MarkAllRead(ctx, "u1"); return err },
			target: gateway.TargetNotification, method: http.MethodPut, path: "/notifications/user/u1/read-all",
		},
		{
			name:   "events in range",
			call:   func(c *careapi.Client) error { _, err := c.Analytics.EventsInRange(ctx, start, end); return err },
			target: gateway.TargetNotification, method: http.MethodGet, path: "/analytics/events/time-range",
			query: url.Values{"start": {"2025-03-01T09:30:00"}, "end": {"2025-03-02T09:30:00"}},
		},
		{
			name:   "recent metrics default days",
			call:   func(c *careapi.Client) error { _, err := c.Analytics.RecentMetrics(ctx, "logins", 0); return err },
			target: gateway.TargetNotification, method: http.MethodGet, path: "/analytics/metrics/logins/recent",
			query: url.Values{"days": {"30"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec := &recorder{}
			require.NoError(t, tt.call(careapi.New(rec)))

			req := rec.last(t)
			require.Equal(t, tt.target, req.Target)
			require.Equal(t, tt.method, req.Method)
			require.Equal(t, tt.path, req.Path)
			if tt.query != nil {
				require.Equal(t, tt.query, req.Query)
			} else {
				require.Empty(t, req.Query)
			}
			if tt.body != "" {
				require.JSONEq(t, tt.body, string(req.Body))
			} else {
				require.Empty(t, req.Body)
			}
		})
	}
}

func TestInvoicesPDF_AcceptsPDF(t *testing.T) {
	t.Parallel()
	rec := &recorder{}
	_, err := careapi.New(rec).Invoices.PDF(context.Background(), "i1")
	require.NoError(t, err)

	req := rec.last(t)
	require.Equal(t, "/invoices/i1/pdf", req.Path)
	require.Equal(t, "application/pdf", req.Header.Get("Accept"))
}

func TestEncodeFileKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		key  string
		want string
	}{
		{key: "patients/42/id.pdf", want: "cGF0aWVudHMvNDIvaWQucGRm"},
		{key: "a?", want: "YT8"},
		{key: "??>", want: "Pz8-"},
	}
	for _, tt := range tests {
		got := careapi.EncodeFileKey(tt.key)
		require.Equal(t, tt.want, got)
		require.False(t, strings.ContainsAny(got, "+/="), "must be url safe and unpadded")
	}
}

func TestViewURL(t *testing.T) {
	t.Parallel()
	require.Equal(t,
		"http://localhost:8082/api/v1/files/view/abc",
		careapi.ViewURL("http://localhost:8082/api/v1/files/download/abc"),
	)
	require.Empty(t, careapi.ViewURL(""))
}
