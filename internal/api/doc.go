// Package api provides typed clients for the botadmin backend resources.
//
// # Overview
//
// Every operation goes through the session layer, which owns the full auth
// contract (bearer injection, CSRF handling, teardown on rejection). This
// package only knows paths, query parameters and response envelopes.
//
// Business payloads are passed through as json.RawMessage: subscription
// tiers, license tiers and similar backend semantics are opaque to the
// console and rendered as-is.
//
// # Resources
//
//   - Users: list, get, update status, delete
//   - Conversations: list, transcript
//   - Scripts: list, get, create, update, delete
//   - Orders: list, get, refund
//   - Licenses: list, get, issue, revoke
//   - Usage: summary and time-series analytics
//
// # Caching
//
// The usage analytics endpoints are polled by dashboards, so their GETs
// are routed through a short-TTL dedupe cache: concurrent identical
// requests share one upstream call and repeats within the window reuse
// the cached payload.
package api
