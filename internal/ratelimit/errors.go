package ratelimit

import "errors"

// ErrRateLimited names the case where the venue's effective rate is
// exhausted. Limiter.Allow reports that case as false and no function in
// this package returns this error. HFT default is reject-new, per spec.md
// §4.5 — cancels always bypass the bucket via AllowCancel.
var ErrRateLimited = errors.New("ratelimit: venue rate limit exceeded")
