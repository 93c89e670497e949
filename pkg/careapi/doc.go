// Package careapi wraps the CareMatch backend REST APIs on top of the
// session gateway.
//
// Every method builds a gateway.Request and hands it to Dispatch, so each
// call carries the caller's credentials and benefits from the gateway's
// refresh-and-retry. Payloads pass through untouched: request bodies are
// encoded as JSON and responses are returned as *gateway.Response for the
// caller to decode.
//
// Basic usage:
//
//	api := careapi.New(gw)
//	resp, err := api.Matches.TopMatches(ctx, patientID, 0)
//	if err != nil {
//		return err
//	}
//	var matches []Match
//	err = resp.DecodeJSON(&matches)
package careapi
