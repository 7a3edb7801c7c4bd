// Package server provides the HTTP API for reservation management.
//
// # Key Components
//
// Server exposes the booking operations over JSON: room availability,
// reservation create/update/resize/delete, listing, and the directory
// lookups (floors, highest seat count). Every request builds its booking
// service around the caller's own OAuth token; the server holds no per-user
// state.
//
// SessionManager keeps the OAuth token in an encrypted, authenticated
// cookie (gorilla/securecookie). The cookie is the session: there is no
// server-side session store, and a restart with configured keys keeps
// existing sessions valid.
//
// HealthChecker serves the Kubernetes liveness and readiness probes.
// MetricsServer exposes Prometheus metrics on a dedicated listener, kept off
// the API port.
//
// # Error Mapping
//
// Booking errors map onto HTTP statuses by kind: invalid input 400, unknown
// room or event 404, availability conflict 409, provider failure 502.
// Requests without a valid session cookie get 401.
package server
