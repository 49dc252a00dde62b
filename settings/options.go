package settings

import (
	log "github.com/sirupsen/logrus"
	"go.uber.org/ratelimit"
)

type ServiceOption func(*Service)

// WithFlushRatelimiter throttles backend synchronization.
func WithFlushRatelimiter(limiter ratelimit.Limiter) ServiceOption {
	return func(svc *Service) {
		svc.flushLimiter = limiter
	}
}

func WithLogger(logger *log.Logger) ServiceOption {
	return func(svc *Service) {
		svc.logger = logger
	}
}
