// Package services implements the HTTP client of the movie catalog backend.
//
// # Client
//
// [Client] exposes one method per backend endpoint plus raw [Client.Get] and [Client.Post] passthroughs.
// Requests travel through a [Middleware] chain (request IDs, logging, rate limiting) built by [Chain].
//
// # Authentication
//
// Every endpoint has an [AuthMode]. The client asks its [Guard] for a bearer token and attaches it with
// an [oauth2.Transport]. A request that requires a session and has none never reaches the network.
// A 401 on any request that carried a token is handed to [Guard.Invalidate]; this is the only place
// authorization rejection is handled.
//
// # Error Handling
//
// Non-2xx responses become [*APIError], which unwraps to a sentinel from the shared package:
//   - [shared.ErrUnauthorized] : 401
//   - [shared.ErrNotFound] : 404
//   - [shared.ErrValidation] : other 4xx, including client-side input validation
//   - [shared.ErrServer] : 5xx
//
// Transport failures and undecodable bodies wrap [shared.ErrNetwork]. The backend's FastAPI
// {"detail": ...} body is decoded into [APIError.Detail].
package services
