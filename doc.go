// Package mbpay is a merchant client for the MBPay payment gateway plus a
// small HTTP bridge that exposes it to applications that cannot sign
// requests themselves.
//
// # Overview
//
// Every call to the gateway is a form POST signed with the merchant's app
// secret. The client builds the canonical string (sorted key=value pairs,
// sign excluded, secret appended as key=...), hashes it with SHA-256, sends
// the request and classifies the JSON envelope that comes back. Payment
// links for QR collection are built offline in the same way.
//
//	┌─────────────────┐    ┌─────────────────┐    ┌─────────────────┐
//	│                 │    │                 │    │                 │
//	│   Your Apps     │◄──►│  MBPay bridge   │◄──►│  MBPay gateway  │
//	│                 │    │   (optional)    │    │                 │
//	└─────────────────┘    └─────────────────┘    └─────────────────┘
//
// # Quick Start
//
//	package main
//
//	import (
//	    "context"
//	    "fmt"
//
//	    "github.com/mstgnz/mbpay/provider/mbpay"
//	)
//
//	func main() {
//	    client, err := mbpay.NewClient(mbpay.Config{
//	        BaseURL:   mbpay.DefaultBaseURL,
//	        AppID:     "your-app-id",
//	        AppSecret: "your-app-secret",
//	    })
//	    if err != nil {
//	        panic(err)
//	    }
//
//	    balance, err := client.GetBalance(context.Background())
//	    if err != nil {
//	        if e, ok := mbpay.AsError(err); ok && e.IsSignError() {
//	            // wrong app secret
//	        }
//	        panic(err)
//	    }
//	    fmt.Println(balance.Balance, balance.Frozen)
//
//	    link, _ := client.GeneratePaymentLink(&mbpay.PaymentLinkRequest{
//	        OrderNo: "ORDER-1",
//	        Subject: "Coffee",
//	        Amount:  100,
//	        Expire:  30, // minutes
//	    })
//	    fmt.Println(link) // mbpay://payorder?data=...
//	}
//
// # Errors
//
// Every failure is a *mbpay.Error with a Kind. Use errors.Is with the
// sentinels (ErrValidation, ErrTransport, ErrTimeout, ErrProtocol, ErrParse,
// ErrApplication, ErrResponseShape, ErrSignature). Application errors carry
// the gateway's code, see the ErrCode constants.
//
// # HTTP API
//
// cmd runs the bridge:
//
//	GET  /health                    (?deep=true calls the gateway)
//	GET  /v1/balance
//	POST /v1/pay
//	POST /v1/payment-links
//	POST /v1/payment-links/verify
//	POST /v1/orders
//	GET  /v1/orders/{orderNo}       (?merchant_id=)
//	GET  /v1/pay-orders/{orderNo}   (?merchant_id=)
//	POST /v1/notify                 gateway callback, signature checked
//	GET  /v1/logs/orders/{orderNo}  with OpenSearch logging
//	GET  /v1/logs/errors            (?hours=)
//
// Everything under /v1 except notify needs "Authorization: Bearer <API_KEY>".
//
// # Configuration
//
//	MBPAY_BASE_URL=https://www.mbpay.world
//	MBPAY_APP_ID=your-app-id
//	MBPAY_APP_SECRET=your-app-secret
//	MBPAY_TIMEOUT=30s
//	MBPAY_MERCHANT_ID=1001
//	API_KEY=bridge-api-key
//	APP_PORT=9999
//	RATE_LIMIT_PER_MINUTE=100
//	ENABLE_OPENSEARCH_LOGGING=false
//	OPENSEARCH_URL=http://localhost:9200
//	LOGGING_LEVEL=info
//
// # Examples
//
//   - examples/paylink - build and verify a payment link offline
//   - examples/logger - system logger usage
package mbpay
