package mbpay

import "context"

// GetBalance returns the merchant's available and frozen balance
func (c *Client) GetBalance(ctx context.Context) (*BalanceResponse, error) {
	env, err := c.do(ctx, pathBalance, Params{})
	if err != nil {
		return nil, err
	}

	balance, err := numericOrDefault(env.Data, "balance")
	if err != nil {
		return nil, err
	}
	frozen, err := numericOrDefault(env.Data, "frozen")
	if err != nil {
		return nil, err
	}

	return &BalanceResponse{Balance: balance, Frozen: frozen}, nil
}

// Pay sends amount to req.Address
func (c *Client) Pay(ctx context.Context, req *PayRequest) (*PayResponse, error) {
	if req == nil {
		return nil, &Error{Kind: KindValidation, Message: "request is required"}
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	params := Params{
		"address":  req.Address,
		"amount":   req.Amount,
		"order_no": req.OrderNo,
	}
	if req.Remark != "" {
		params["remark"] = req.Remark
	}

	env, err := c.do(ctx, pathPay, params)
	if err != nil {
		return nil, err
	}

	out := &PayResponse{}
	if out.PlatformOrderNo, err = requiredString(env.Data, "platform_order_no"); err != nil {
		return nil, err
	}
	if out.ActualAmount, err = numericOrDefault(env.Data, "actual_amount"); err != nil {
		return nil, err
	}
	if out.Fee, err = numericOrDefault(env.Data, "fee"); err != nil {
		return nil, err
	}
	if out.Balance, err = numericOrDefault(env.Data, "balance"); err != nil {
		return nil, err
	}
	return out, nil
}

// CreatePaymentOrder creates a hosted checkout order and returns its page link
func (c *Client) CreatePaymentOrder(ctx context.Context, req *PaymentOrderRequest) (*PaymentOrderResponse, error) {
	if req == nil {
		return nil, &Error{Kind: KindValidation, Message: "request is required"}
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	env, err := c.do(ctx, pathPaymentOrder, Params{
		"merchant_id": req.MerchantID,
		"order_no":    req.OrderNo,
		"subject":     req.Subject,
		"amount":      req.Amount,
		"notify_url":  req.NotifyURL,
	})
	if err != nil {
		return nil, err
	}

	link, err := requiredString(env.Data, "payment_link")
	if err != nil {
		return nil, err
	}
	return &PaymentOrderResponse{PaymentLink: link}, nil
}

// GetOrderInfo looks up a collection order
func (c *Client) GetOrderInfo(ctx context.Context, orderNo string, merchantID int64) (*OrderInfoResponse, error) {
	env, err := c.queryOrder(ctx, pathOrderInfo, orderNo, merchantID)
	if err != nil {
		return nil, err
	}

	data := env.Data
	out := &OrderInfoResponse{
		PlatformOrderNo: optionalString(data, "platform_order_no"),
		StatusText:      optionalString(data, "status_text"),
		ExpiresAt:       optionalString(data, "expires_at"),
		CreatedAt:       optionalString(data, "created_at"),
		PaidAt:          optionalString(data, "paid_at"),
	}
	if out.OrderNo, err = requiredString(data, "order_no"); err != nil {
		return nil, err
	}
	if out.Amount, err = requiredNumeric(data, "amount"); err != nil {
		return nil, err
	}
	if out.PlatformFee, err = numericOrDefault(data, "platform_fee"); err != nil {
		return nil, err
	}
	status, err := requiredNumeric(data, "status")
	if err != nil {
		return nil, err
	}
	out.Status = int(status)

	return out, nil
}

// GetPayOrderInfo looks up a payout order
func (c *Client) GetPayOrderInfo(ctx context.Context, orderNo string, merchantID int64) (*PayOrderInfoResponse, error) {
	env, err := c.queryOrder(ctx, pathPayOrderInfo, orderNo, merchantID)
	if err != nil {
		return nil, err
	}

	data := env.Data
	out := &PayOrderInfoResponse{
		PlatformOrderNo: optionalString(data, "platform_order_no"),
		StatusText:      optionalString(data, "status_text"),
		Remark:          optionalString(data, "remark"),
		CreateAt:        optionalString(data, "create_at"),
		UpdateAt:        optionalString(data, "update_at"),
		PayAddress:      optionalString(data, "pay_address"),
	}
	if out.OrderNo, err = requiredString(data, "order_no"); err != nil {
		return nil, err
	}
	if out.Amount, err = requiredNumeric(data, "amount"); err != nil {
		return nil, err
	}
	if out.Fee, err = numericOrDefault(data, "fee"); err != nil {
		return nil, err
	}
	if out.ActualAmount, err = numericOrDefault(data, "actual_amount"); err != nil {
		return nil, err
	}
	status, err := requiredNumeric(data, "status")
	if err != nil {
		return nil, err
	}
	out.Status = int(status)

	return out, nil
}

func (c *Client) queryOrder(ctx context.Context, endpoint, orderNo string, merchantID int64) (*Envelope, error) {
	query := &OrderQuery{OrderNo: orderNo, MerchantID: merchantID}
	if err := validateRequest(query); err != nil {
		return nil, err
	}

	return c.do(ctx, endpoint, Params{
		"order_no":    query.OrderNo,
		"merchant_id": query.MerchantID,
	})
}
