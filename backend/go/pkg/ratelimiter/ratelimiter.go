package ratelimiter

// RateLimiter decides whether one more request may proceed.
type RateLimiter interface {
	// Allow returns true if the request is allowed, otherwise returns false.
	Allow() bool
}
