// Package services implements the clients the account session talks to.
//
// # Commerce Backend
//
// [CommerceService] lists the MediaStore-style endpoints used by the session controller.
// [CleengService] implements it on top of [APIService], a small JSON client with client-side rate limiting.
//
// Every endpoint answers with the envelope {"errors": [...], "responseData": ...}.
// A non-empty error list becomes a [*ResponseError]; transport failures wrap [shared.ErrAPIRequest].
//
// # Identity Provider
//
// [IdentityProvider] runs the OpenID Connect authorization code flow (with PKCE and nonce)
// and returns a verified [IdentityToken]. The session treats its access token as the session JWT.
package services
