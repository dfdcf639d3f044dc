package mbpay

import "net/url"

// VerifyNotification checks an inbound gateway callback. The callback must
// carry a sign, name appID when appID is set, and be signed with secret
// over every other field.
func VerifyNotification(params map[string]string, appID, secret string) error {
	candidate := params[signKey]
	if candidate == "" {
		return newSignatureError("notification has no sign")
	}
	if appID != "" && params["app_id"] != appID {
		return newSignatureError("notification app_id does not match")
	}

	signed := make(Params, len(params))
	for k, v := range params {
		signed[k] = v
	}
	if !Verify(signed, secret, candidate) {
		return newSignatureError("notification signature mismatch")
	}
	return nil
}

// NotificationParams flattens form values, keeping the first value per key
func NotificationParams(values url.Values) map[string]string {
	params := make(map[string]string, len(values))
	for k, v := range values {
		if len(v) > 0 {
			params[k] = v[0]
		}
	}
	return params
}

// VerifyNotification checks a callback against this client's identity
func (c *Client) VerifyNotification(params map[string]string) error {
	return VerifyNotification(params, c.cfg.AppID, c.cfg.AppSecret)
}
