package cart

import (
	"slices"
	"time"

	"storefront/internal/models"
)

// OrderRequest is the immutable snapshot of a cart taken at checkout.
// Accessors return copies, so nothing handed out can alter the request.
type OrderRequest struct {
	items         []models.LineItem
	shipping      models.ShippingInfo
	paymentMethod models.PaymentMethod
	summary       models.PriceSummary
	createdAt     time.Time
}

// NewOrderRequest snapshots items and prices them with policy.
func NewOrderRequest(items []models.LineItem, shipping models.ShippingInfo, method models.PaymentMethod, policy ShippingPolicy) OrderRequest {
	snapshot := slices.Clone(items)
	return OrderRequest{
		items:         snapshot,
		shipping:      shipping,
		paymentMethod: method,
		summary:       policy.Summarize(snapshot),
		createdAt:     time.Now(),
	}
}

func (r OrderRequest) Items() []models.LineItem           { return slices.Clone(r.items) }
func (r OrderRequest) Shipping() models.ShippingInfo       { return r.shipping }
func (r OrderRequest) PaymentMethod() models.PaymentMethod { return r.paymentMethod }
func (r OrderRequest) Summary() models.PriceSummary        { return r.summary }
func (r OrderRequest) CreatedAt() time.Time                { return r.createdAt }

// Payload converts the request to the order service wire form.
func (r OrderRequest) Payload() models.OrderPayload {
	lines := make([]models.OrderLine, 0, len(r.items))
	for _, item := range r.items {
		lines = append(lines, models.OrderLine{
			ProductID: item.ProductID,
			Name:      item.Name,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}
	return models.OrderPayload{
		Items:          lines,
		Shipping:       r.shipping,
		PaymentMethod:  r.paymentMethod,
		Subtotal:       r.summary.Subtotal,
		ShippingCharge: r.summary.ShippingCharge,
		GrandTotal:     r.summary.GrandTotal,
	}
}
