// Package httputil provides HTTP helpers for remote catalog sources.
//
//   - [Retry]: retry with exponential backoff for transient failures
//   - [FetchJSON]: GET a URL and decode its JSON body, retrying 5xx,
//     429 and network errors
//
// Only errors wrapped in [RetryableError] are retried; 4xx responses and
// decode failures are returned immediately.
package httputil
