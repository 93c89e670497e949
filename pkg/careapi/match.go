package careapi

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/carematch360/portal/pkg/gateway"
)

// DefaultTopMatches is the limit used by TopMatches when none is given.
const DefaultTopMatches = 10

// MatchesAPI reads and recalculates patient/provider matches.
type MatchesAPI struct{ c caller }

// Calculate scores a single patient and provider pair.
func (m *MatchesAPI) Calculate(ctx context.Context, patientID, providerID string) (*gateway.Response, error) {
	q := url.Values{"patientId": {patientID}, "providerId": {providerID}}
	return m.c.do(ctx, http.MethodPost, "/matches/calculate", q, nil)
}

func (m *MatchesAPI) PatientMatches(ctx context.Context, patientID string, p Pagination) (*gateway.Response, error) {
	return m.c.do(ctx, http.MethodGet, "/matches/patient"+seg(patientID), p.values(), nil)
}

func (m *MatchesAPI) ProviderMatches(ctx context.Context, providerID string, p Pagination) (*gateway.Response, error) {
	return m.c.do(ctx, http.MethodGet, "/matches/provider"+seg(providerID), p.values(), nil)
}

// TopMatches returns the best matches for a patient. A limit of zero or
// less means DefaultTopMatches.
func (m *MatchesAPI) TopMatches(ctx context.Context, patientID string, limit int) (*gateway.Response, error) {
	if limit <= 0 {
		limit = DefaultTopMatches
	}
	q := url.Values{"limit": {strconv.Itoa(limit)}}
	return m.c.do(ctx, http.MethodGet, "/matches/patient"+seg(patientID, "top"), q, nil)
}

func (m *MatchesAPI) Match(ctx context.Context, patientID, providerID string) (*gateway.Response, error) {
	return m.c.do(ctx, http.MethodGet, "/matches/patient"+seg(patientID, "provider", providerID), nil, nil)
}

func (m *MatchesAPI) RecalculatePatient(ctx context.Context, patientID string) (*gateway.Response, error) {
	return m.c.do(ctx, http.MethodPost, "/matches/recalculate/patient"+seg(patientID), nil, nil)
}

func (m *MatchesAPI) RecalculateProvider(ctx context.Context, providerID string) (*gateway.Response, error) {
	return m.c.do(ctx, http.MethodPost, "/matches/recalculate/provider"+seg(providerID), nil, nil)
}

// OffersAPI drives the offer workflow between providers and patients.
type OffersAPI struct{ c caller }

// Create makes a draft offer.
func (o *OffersAPI) Create(ctx context.Context, payload any) (*gateway.Response, error) {
	return o.c.do(ctx, http.MethodPost, "/offers", nil, payload)
}

// Send moves a draft offer to the patient.
func (o *OffersAPI) Send(ctx context.Context, offerID string) (*gateway.Response, error) {
	return o.c.do(ctx, http.MethodPut, "/offers"+seg(offerID, "send"), nil, nil)
}

func (o *OffersAPI) Accept(ctx context.Context, offerID string) (*gateway.Response, error) {
	return o.c.do(ctx, http.MethodPut, "/offers"+seg(offerID, "accept"), nil, nil)
}

func (o *OffersAPI) Reject(ctx context.Context, offerID string) (*gateway.Response, error) {
	return o.c.do(ctx, http.MethodPut, "/offers"+seg(offerID, "reject"), nil, nil)
}

func (o *OffersAPI) Get(ctx context.Context, offerID string) (*gateway.Response, error) {
	return o.c.do(ctx, http.MethodGet, "/offers"+seg(offerID), nil, nil)
}

func (o *OffersAPI) PatientOffers(ctx context.Context, patientID string, p Pagination) (*gateway.Response, error) {
	return o.c.do(ctx, http.MethodGet, "/offers/patient"+seg(patientID), p.values(), nil)
}

func (o *OffersAPI) ProviderOffers(ctx context.Context, providerID string, p Pagination) (*gateway.Response, error) {
	return o.c.do(ctx, http.MethodGet, "/offers/provider"+seg(providerID), p.values(), nil)
}

// History returns every status transition of an offer.
func (o *OffersAPI) History(ctx context.Context, offerID string) (*gateway.Response, error) {
	return o.c.do(ctx, http.MethodGet, "/offers"+seg(offerID, "history"), nil, nil)
}
