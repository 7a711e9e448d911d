// Package ratelimit sheds registration load per caller. It is advisory: a
// limiter that cannot reach its backend lets the request through.
package ratelimit

import "context"

type Decision int

const (
	Allowed Decision = iota + 1
	Denied
	// FailOpen means the backend could not answer and the request was let through.
	FailOpen
)

func (d Decision) String() string {
	switch d {
	case Allowed:
		return "allowed"
	case Denied:
		return "denied"
	case FailOpen:
		return "fail_open"
	default:
		return "unknown"
	}
}

// Permits reports whether the caller may proceed.
func (d Decision) Permits() bool {
	return d != Denied
}

const (
	EventFailOpen = "ratelimit.fail_open"
	EventDenied   = "ratelimit.denied"
)

type Limiter interface {
	Allow(ctx context.Context, identity string) Decision
}
