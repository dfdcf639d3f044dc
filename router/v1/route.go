package v1

import (
	"github.com/go-chi/chi/v5"
	"github.com/mstgnz/mbpay/handler"
)

// Routes registers the authenticated gateway API. logs may be nil when
// OpenSearch logging is disabled.
func Routes(r chi.Router, payment *handler.PaymentHandler, logs *handler.LogsHandler) {
	r.Get("/balance", payment.GetBalance)
	r.Post("/pay", payment.Pay)

	r.Route("/payment-links", func(r chi.Router) {
		r.Post("/", payment.CreatePaymentLink)
		r.Post("/verify", payment.VerifyPaymentLink)
	})

	r.Route("/orders", func(r chi.Router) {
		r.Post("/", payment.CreatePaymentOrder)
		r.Get("/{orderNo}", payment.GetOrderInfo)
	})
	r.Get("/pay-orders/{orderNo}", payment.GetPayOrderInfo)

	if logs != nil {
		r.Route("/logs", func(r chi.Router) {
			r.Get("/orders/{orderNo}", logs.OrderCalls)
			r.Get("/errors", logs.RecentErrors)
		})
	}
}

// NotifyRoutes registers the gateway callback. Notifications are
// authenticated by their signature, not by the API key.
func NotifyRoutes(r chi.Router, payment *handler.PaymentHandler) {
	r.Post("/notify", payment.HandleNotify)
}
