/*
Package gateway is the client side session gateway for the CareMatch360 portal.

# Overview

Every call to a backend service goes through a Gateway. The gateway owns the
authenticated session, attaches credentials to outbound requests, and recovers
from access token expiry without the caller noticing.

Five backends are addressable by Target:

  - identity: login, logout, token refresh, users, two-factor
  - profile: patients, providers, documents, files
  - match: matches and offers
  - billing: subscriptions and invoices
  - notification: notifications and analytics

# Session lifecycle

A SessionStore holds at most one Session and mirrors it to a Persister so it
survives restarts. The composition root creates one store and hands it to
New; there is no package level state.

	store, err := gateway.OpenSessionStore(ctx, persister, logger)
	gw, err := gateway.New(gateway.Config{Targets: urls}, store)

	sess, err := gw.Login(ctx, gateway.Credentials{Email: email, Password: pw})
	switch {
	case errors.Is(err, gateway.ErrTwoFactorRequired):
		// ask for the code and log in again with TwoFactorCode set
	case errors.Is(err, gateway.ErrAccountUnverified):
		// point the user at email verification
	}

	resp, err := gw.Dispatch(ctx, gateway.Request{
		Target: gateway.TargetMatch,
		Method: http.MethodGet,
		Path:   "/matches/patient/" + patientID,
	})

# Token refresh

When a request comes back 401 the gateway refreshes the access token once and
retries the request once. Concurrent 401s share one refresh: the first caller
starts it and the others wait on the same result. If the refresh fails the
session is logged out and every waiter gets ErrSessionExpired.

A 401 that arrives after the session was logged out or replaced by another
login is returned as a *DomainError; the request is never re-sent under
different credentials.

JWT access tokens are also refreshed ahead of use when they are within
Config.ExpiryLeeway of their exp claim. If that early refresh gets no
response the session is kept and the request goes out with the current
token, which still gets the usual 401 refresh and retry.

# Errors

  - *AuthError matches ErrInvalidCredentials, ErrAccountUnverified,
    ErrTwoFactorRequired or ErrSessionExpired with errors.Is.
  - *NetworkError means no response was received. It matches ErrNetwork.
  - *DomainError carries any other non-2xx response verbatim.
*/
package gateway
