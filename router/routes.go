package router

import (
	"github.com/go-chi/chi/v5"
	"github.com/mstgnz/mbpay/handler"
	"github.com/mstgnz/mbpay/infra/middle"
	v1 "github.com/mstgnz/mbpay/router/v1"
)

// Options carries what the /v1 tree needs besides its handlers
type Options struct {
	APIKey      string
	RateLimiter *middle.RateLimiter
}

// Routes mounts /v1: the notify callback open to the gateway, everything
// else behind the API key and the rate limiter.
func Routes(r chi.Router, payment *handler.PaymentHandler, logs *handler.LogsHandler, opts Options) {
	r.Route("/v1", func(r chi.Router) {
		r.Use(middle.RequestValidationMiddleware())

		v1.NotifyRoutes(r, payment)

		r.Group(func(r chi.Router) {
			if opts.RateLimiter != nil {
				r.Use(middle.RateLimitMiddleware(opts.RateLimiter))
			}
			r.Use(middle.AuthMiddleware(opts.APIKey))

			v1.Routes(r, payment, logs)
		})
	})
}
