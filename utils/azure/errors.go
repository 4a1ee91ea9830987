package azure

import "errors"

// ErrRateLimited is returned after a 429 retry is exhausted
var ErrRateLimited = errors.New("Speech service rate limited")

// ErrTransient is returned when the speech service keeps failing with
// timeouts or 5xx responses
var ErrTransient = errors.New("Speech service unavailable")
