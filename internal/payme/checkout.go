package payme

import (
	"encoding/base64"
	"fmt"
)

// CheckoutURL builds the hosted checkout link for an order: the gateway
// decodes a base64 parameter string of the form
// m=<merchant>;ac.order_id=<order>;a=<amount tiyin>;c=<return url>.
func CheckoutURL(checkoutBase, merchantID, orderNumber string, amountTiyin int64, returnURL string) string {
	params := fmt.Sprintf("m=%s;ac.order_id=%s;a=%d;c=%s",
		merchantID, orderNumber, amountTiyin, returnURL)
	return checkoutBase + "/" + base64.StdEncoding.EncodeToString([]byte(params))
}
