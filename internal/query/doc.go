// Package query debounces catalog searches.
//
// A [Pipeline] owns the current [models.Filter]. Free-text input calls [Pipeline.SetSearchTerm] followed by
// [Pipeline.Schedule], which (re)arms a single timer; when it fires, one request is issued with the filter as it
// is at that moment. Explicit filter changes and initial loads call [Pipeline.FetchNow] instead.
//
// Every request gets a sequence number. A response reaches the OnResult callback only when it is newer than the
// last one delivered, so a slow stale response never overwrites fresher results.
//
// The server is the only filtering path: results are handed over exactly as returned.
package query
