// Package httputil provides HTTP helpers for the package source client.
//
// # Retry
//
// [Retry] wraps a request with bounded retries for transient failures:
//
//   - Network errors
//   - 5xx server errors
//
// Only errors wrapped with [RetryableError] are retried; everything else is
// returned on the first attempt. The delay doubles after each attempt:
//
//	err := httputil.Retry(ctx, 3, httputil.DefaultRetryDelay, func() error {
//	    resp, err := client.Do(req)
//	    if err != nil {
//	        return httputil.Retryable(err)
//	    }
//	    ...
//	})
//
// bpm performs a single attempt per request unless retries are configured
// explicitly, so the default call site passes attempts=1.
package httputil
