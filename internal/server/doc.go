// Package server runs the local HTTP callback used by identity provider logins.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
//
// # Callback Handler
//
// [CallbackHandler] completes the OpenID Connect authorization code flow. It checks the state parameter
// against the pending [services.AuthRequest], hands the code to an [Exchanger] and delivers exactly one
// [CallbackResult] through a channel. Later callbacks are rejected.
//
// # Usage
//
// `ottx account login --idp` starts a temporary server on the configured host and port, opens the browser
// at the provider's authorization URL and shuts the server down after the first callback.
package server
