package models

// Session is one initiated hosted-page payment attempt. The token is the
// gateway-issued handle needed to assert the outcome later; Expiration is
// advisory and comes straight from the gateway (it is not enforced here,
// sessions only leave the store by consumption).
type Session struct {
	OrderID    string `json:"orderId"`
	Token      string `json:"token"`
	Expiration string `json:"expiration"`
}
