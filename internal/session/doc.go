// Package session manages the admin bearer-token lifecycle and performs
// authenticated HTTP requests against the botadmin backend.
//
// # Responsibilities
//
// The package has three cooperating parts:
//
//   - TokenStore: persists the bearer token across process restarts.
//     The default implementation keeps a single named slot in a local
//     SQLite database; a memory-backed store exists for tests.
//
//   - Token inspection: DecodeClaims, IsExpired and IsExpiringSoon evaluate
//     a compact three-segment token locally, without any network call.
//     The current time is always passed in by the caller.
//
//   - Session: wraps every API call, injecting the Authorization header,
//     attaching a CSRF token to mutating verbs, retrying once on a
//     CSRF-specific rejection, and tearing the session down when the
//     backend confirms the credential is no longer valid.
//
// # Request Contract
//
// Session.Do validates the local token before touching the network. A
// missing or expired token fails immediately with ErrAuthRequired. A
// backend 401/403 clears the stored token and returns *AuthFailedError.
// Transport-level failures propagate untouched and never log the admin
// out: only a server-confirmed rejection invalidates the session.
//
// # Hooks
//
// The session has no UI dependency. Consumers subscribe via Hooks:
//
//	s := session.New(baseURL, store, session.WithHooks(session.Hooks{
//		OnAuthRequired: func(reason string) { ... },
//		OnLoginSuccess: func(token string) { ... },
//	}))
//
// # Background Monitor
//
// StartMonitor runs a recurring local expiry check so a session that
// expires while the console is idle is caught promptly rather than on
// the next API call.
package session
