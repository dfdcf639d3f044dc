package mbpay

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifyNotification(t *testing.T) {
	valid := map[string]string{
		"app_id":   "app1",
		"order_no": "X1",
		"status":   "1",
		"sign":     "72d82ef082de9d9e28fc70c14d435d93b9575668bb658d5a9f19f67242bc7c63",
	}
	require.NoError(t, VerifyNotification(valid, "app1", testSecret))

	tests := []struct {
		name   string
		mutate func(p map[string]string)
		appID  string
	}{
		{"missing_sign", func(p map[string]string) { delete(p, "sign") }, "app1"},
		{"other_app", func(p map[string]string) {}, "app2"},
		{"tampered_status", func(p map[string]string) { p["status"] = "2" }, "app1"},
		{"extra_field", func(p map[string]string) { p["amount"] = "100" }, "app1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := map[string]string{}
			for k, v := range valid {
				params[k] = v
			}
			tt.mutate(params)

			err := VerifyNotification(params, tt.appID, testSecret)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrSignature)
		})
	}
}

func TestVerifyNotification_AnyAppWhenUnset(t *testing.T) {
	params := map[string]string{"app_id": "app9", "order_no": "X1"}
	params["sign"] = Sign(Params{"app_id": "app9", "order_no": "X1"}, testSecret)

	assert.NoError(t, VerifyNotification(params, "", testSecret))
}

func TestNotificationParams(t *testing.T) {
	values := url.Values{
		"order_no": {"X1", "ignored"},
		"empty":    {},
		"status":   {"1"},
	}

	assert.Equal(t, map[string]string{"order_no": "X1", "status": "1"}, NotificationParams(values))
}

func TestClient_VerifyNotification(t *testing.T) {
	client := newLinkClient(t)
	params := Authenticate(Params{"order_no": "X1", "status": 1}, "app1", testSecret, fixedNow).Form()

	assert.NoError(t, client.VerifyNotification(params))

	params["status"] = "3"
	assert.ErrorIs(t, client.VerifyNotification(params), ErrSignature)
}
