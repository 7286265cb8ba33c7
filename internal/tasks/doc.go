// Package tasks implements multi-request operations that report progress while they run.
//
// [DashboardLoader] reloads the authenticated user's data (profile, reviews, watchlist, rated movies) after a login
// or on demand. Each endpoint is fetched in turn and a [ProgressUpdate] is sent on an optional channel; sends never
// block, so a slow or absent reader cannot stall the load.
//
// Endpoint failures are collected per endpoint in [Dashboard.Errors]. A rejected or missing session aborts the load
// immediately because every remaining endpoint would be rejected too.
package tasks
