// Package chatex is a client for the Chatex exchange REST API.
//
// A Client authenticates lazily: the first call exchanges the API secret for
// a short-lived access token, which is cached and reused until it is within
// Tolerance of its expiry. Concurrent callers share a single refresh.
//
//	c, err := chatex.New("https://api.chatex.com/v1", secret)
//	if err != nil { ... }
//	info, err := c.Profile().GetAccountInformation(ctx)
//
// Every failure is an *Error whose Kind can be matched with errors.Is against
// the exported sentinels (ErrNotFound, ErrRateLimited, ...). Calls are never
// retried automatically; a rate-limited error carries the server's
// retry-after hint, and RetryRateLimited implements the caller-side back-off.
package chatex
