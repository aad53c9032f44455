// Package models defines the account and commerce types exchanged with the commerce backend and held in session state.
//
// The package contains three categories of types:
//
// 1. Session credentials
//   - [AuthData] : access/refresh token pair persisted under the "auth" key
//   - [JwtDetails] : claims decoded from the access token (never stored)
//
// 2. Backend resources
//   - [Customer] : account profile, including [ExternalData] personal shelves
//   - [Subscription], [Transaction], [PaymentDetails] : commerce state
//   - [Consent], [CustomerConsent] : publisher consent definitions and customer answers
//   - [CaptureStatus], [Capture] : registration capture questions and answers
//
// 3. Wire helpers
//   - [Response] : the backend's uniform {errors, responseData} envelope
//   - request payloads for each mutating endpoint
package models
