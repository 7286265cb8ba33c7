// Package models defines domain entities exchanged with the movie catalog backend and persisted locally.
//
// The package contains two categories of types:
//
// 1. Data Transfer Objects (DTOs): structs decoded from or encoded to the catalog API
//   - [Movie] : Catalog entry with its genre names
//   - [Genre] : Genre used by the catalog filter
//   - [Review], [ReviewWithMovie] : User reviews, optionally embedding the reviewed movie
//   - [Profile] : The authenticated user's account summary
//   - [MovieInput], [ReviewInput], [Registration] : Request bodies validated before sending
//
// 2. Persistent Entities: Database-backed records
//   - [SessionEvent] : Audit trail of session transitions (login, logout, invalidation)
//
// [Filter] is the search/genre state read by the query pipeline. The [AllGenres] sentinel means "no genre constraint".
package models
