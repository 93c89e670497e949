package careapi

import (
	"context"
	"net/http"

	"github.com/carematch360/portal/pkg/gateway"
)

// SubscriptionsAPI manages provider subscriptions.
type SubscriptionsAPI struct{ c caller }

// Create starts a subscription, beginning with the trial period.
func (s *SubscriptionsAPI) Create(ctx context.Context, payload any) (*gateway.Response, error) {
	return s.c.do(ctx, http.MethodPost, "/subscriptions", nil, payload)
}

// Update upgrades or downgrades a subscription.
func (s *SubscriptionsAPI) Update(ctx context.Context, subscriptionID string, payload any) (*gateway.Response, error) {
	return s.c.do(ctx, http.MethodPut, "/subscriptions"+seg(subscriptionID), nil, payload)
}

func (s *SubscriptionsAPI) Cancel(ctx context.Context, subscriptionID string) (*gateway.Response, error) {
	return s.c.do(ctx, http.MethodDelete, "/subscriptions"+seg(subscriptionID), nil, nil)
}

func (s *SubscriptionsAPI) Get(ctx context.Context, subscriptionID string) (*gateway.Response, error) {
	return s.c.do(ctx, http.MethodGet, "/subscriptions"+seg(subscriptionID), nil, nil)
}

// ForProvider returns the provider's active subscription.
func (s *SubscriptionsAPI) ForProvider(ctx context.Context, providerID string) (*gateway.Response, error) {
	return s.c.do(ctx, http.MethodGet, "/subscriptions/provider"+seg(providerID), nil, nil)
}

// InvoicesAPI reads invoices.
type InvoicesAPI struct{ c caller }

func (i *InvoicesAPI) Get(ctx context.Context, invoiceID string) (*gateway.Response, error) {
	return i.c.do(ctx, http.MethodGet, "/invoices"+seg(invoiceID), nil, nil)
}

func (i *InvoicesAPI) ByNumber(ctx context.Context, number string) (*gateway.Response, error) {
	return i.c.do(ctx, http.MethodGet, "/invoices/number"+seg(number), nil, nil)
}

func (i *InvoicesAPI) ForSubscription(ctx context.Context, subscriptionID string, p Pagination) (*gateway.Response, error) {
	return i.c.do(ctx, http.MethodGet, "/invoices/subscription"+seg(subscriptionID), p.values(), nil)
}

// PDF returns the rendered invoice. The body is the raw PDF.
func (i *InvoicesAPI) PDF(ctx context.Context, invoiceID string) (*gateway.Response, error) {
	req := gateway.Request{Target: i.c.target, Method: http.MethodGet, Path: "/invoices" + seg(invoiceID, "pdf")}
	return i.c.d.Dispatch(ctx, req.WithHeader("Accept", "application/pdf"))
}
