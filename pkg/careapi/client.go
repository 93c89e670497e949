package careapi

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/carematch360/portal/pkg/gateway"
)

// DefaultPageSize is the page size used when Pagination.Size is zero.
const DefaultPageSize = 20

// Dispatcher sends a request through the session gateway.
type Dispatcher interface {
	Dispatch(ctx context.Context, req gateway.Request) (*gateway.Response, error)
}

// Client groups the per-backend API wrappers.
type Client struct {
	Auth      *AuthAPI
	Users     *UsersAPI
	TwoFactor *TwoFactorAPI

	Patients  *PatientsAPI
	Providers *ProvidersAPI
	Files     *FilesAPI

	Matches *MatchesAPI
	Offers  *OffersAPI

	Subscriptions *SubscriptionsAPI
	Invoices      *InvoicesAPI

	Notifications *NotificationsAPI
	Analytics     *AnalyticsAPI
}

// New returns a Client that sends every call through d.
func New(d Dispatcher) *Client {
	identity := caller{d: d, target: gateway.TargetIdentity}
	profile := caller{d: d, target: gateway.TargetProfile}
	match := caller{d: d, target: gateway.TargetMatch}
	billing := caller{d: d, target: gateway.TargetBilling}
	notification := caller{d: d, target: gateway.TargetNotification}

	return &Client{
		Auth:      &AuthAPI{identity},
		Users:     &UsersAPI{identity},
		TwoFactor: &TwoFactorAPI{identity},

		Patients:  &PatientsAPI{documents{caller: profile, root: "/patients"}},
		Providers: &ProvidersAPI{documents{caller: profile, root: "/providers"}},
		Files:     &FilesAPI{profile},

		Matches: &MatchesAPI{match},
		Offers:  &OffersAPI{match},

		Subscriptions: &SubscriptionsAPI{billing},
		Invoices:      &InvoicesAPI{billing},

		Notifications: &NotificationsAPI{notification},
		Analytics:     &AnalyticsAPI{notification},
	}
}

// Pagination selects a page of a list endpoint. The zero value asks for the
// first page of DefaultPageSize items.
type Pagination struct {
	Page int
	Size int
}

func (p Pagination) values() url.Values {
	size := p.Size
	if size <= 0 {
		size = DefaultPageSize
	}
	page := p.Page
	if page < 0 {
		page = 0
	}
	return url.Values{
		"page": {strconv.Itoa(page)},
		"size": {strconv.Itoa(size)},
	}
}

// caller binds a dispatcher to one backend target.
type caller struct {
	d      Dispatcher
	target gateway.Target
}

func (c caller) do(ctx context.Context, method, path string, query url.Values, body any) (*gateway.Response, error) {
	req, err := gateway.NewRequest(c.target, method, path, body)
	if err != nil {
		return nil, err
	}
	if len(query) > 0 {
		req = req.WithQuery(query)
	}
	return c.d.Dispatch(ctx, req)
}

// seg escapes each element as a single path segment and joins them.
func seg(parts ...string) string {
	var b strings.Builder
	for _, p := range parts {
		b.WriteByte('/')
		b.WriteString(url.PathEscape(p))
	}
	return b.String()
}
