package model

// CheckoutSession is the subset of a Stripe checkout.session object the
// webhook reads from event data.
type CheckoutSession struct {
	ID            string            `json:"id"`
	PaymentStatus string            `json:"payment_status"`
	Metadata      map[string]string `json:"metadata"`
}

const (
	MetadataPlan     = "plan"
	MetadataOrderID  = "order_id"
	MetadataFlowerID = "flower_id"
)
