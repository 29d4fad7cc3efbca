package ratelimit

// Limiter decides whether another request for key fits in its quota.
// Allow records the request when it is admitted.
type Limiter interface {
	Allow(key string) bool
}
