package api

import "github.com/okian/salaryd/pkg/logger"

// Option configures a Server.
type Option func(*Server)

// WithRateLimit sets the per-client prediction budget.
func WithRateLimit(perMinute, burst int) Option {
	return func(s *Server) {
		s.limiter = NewRateLimiter(perMinute, burst)
	}
}

// WithRateLimiter installs a prebuilt limiter.
func WithRateLimiter(l *RateLimiter) Option {
	return func(s *Server) {
		if l != nil {
			s.limiter = l
		}
	}
}

// WithVersion sets the version reported by the info endpoint.
func WithVersion(v string) Option {
	return func(s *Server) {
		if v != "" {
			s.version = v
		}
	}
}

// WithLogger sets the server logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}
