package mbpay

// BalanceResponse is the merchant's available and frozen balance (MB)
type BalanceResponse struct {
	Balance int64 `json:"balance"`
	Frozen  int64 `json:"frozen"`
}

// PayRequest transfers amount to an address
type PayRequest struct {
	Address string `json:"address" validate:"required"`
	OrderNo string `json:"order_no" validate:"required"`
	Amount  int64  `json:"amount" validate:"gt=0"`
	Remark  string `json:"remark,omitempty"`
}

// PayResponse is the result of a payment
type PayResponse struct {
	PlatformOrderNo string `json:"platform_order_no"`
	ActualAmount    int64  `json:"actual_amount"`
	Fee             int64  `json:"fee"`
	Balance         int64  `json:"balance"`
}

// PaymentLinkRequest builds an offline payment link. Expire is in minutes;
// a nonce is generated when empty.
type PaymentLinkRequest struct {
	OrderNo   string `json:"order_no" validate:"required"`
	Subject   string `json:"subject" validate:"required"`
	Amount    int64  `json:"amount" validate:"gt=0"`
	Expire    int64  `json:"expire" validate:"gt=0"`
	Nonce     string `json:"nonce,omitempty"`
	NotifyURL string `json:"notify_url,omitempty"`
}

// PaymentOrderRequest creates a hosted checkout order
type PaymentOrderRequest struct {
	MerchantID int64  `json:"merchant_id" validate:"gt=0"`
	OrderNo    string `json:"order_no" validate:"required"`
	Subject    string `json:"subject" validate:"required"`
	Amount     int64  `json:"amount" validate:"gt=0"`
	NotifyURL  string `json:"notify_url" validate:"required"`
}

// PaymentOrderResponse carries the checkout page link
type PaymentOrderResponse struct {
	PaymentLink string `json:"payment_link"`
}

// OrderQuery identifies an order for the two info endpoints
type OrderQuery struct {
	OrderNo    string `json:"order_no" validate:"required"`
	MerchantID int64  `json:"merchant_id" validate:"gt=0"`
}

// OrderInfoResponse describes a collection order
type OrderInfoResponse struct {
	OrderNo         string `json:"order_no"`
	PlatformOrderNo string `json:"platform_order_no"`
	Amount          int64  `json:"amount"`
	PlatformFee     int64  `json:"platform_fee"`
	Status          int    `json:"status"`
	StatusText      string `json:"status_text"`
	ExpiresAt       string `json:"expires_at"`
	CreatedAt       string `json:"created_at"`
	PaidAt          string `json:"paid_at"`
}

// PayOrderInfoResponse describes a payout order
type PayOrderInfoResponse struct {
	OrderNo         string `json:"order_no"`
	PlatformOrderNo string `json:"platform_order_no"`
	Amount          int64  `json:"amount"`
	Fee             int64  `json:"fee"`
	ActualAmount    int64  `json:"actual_amount"`
	Status          int    `json:"status"`
	StatusText      string `json:"status_text"`
	Remark          string `json:"remark"`
	CreateAt        string `json:"create_at"`
	UpdateAt        string `json:"update_at"`
	PayAddress      string `json:"pay_address"`
}
