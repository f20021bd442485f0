package features

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/cucumber/godog"
	"github.com/shopspring/decimal"

	"storefront/internal/cart"
	"storefront/internal/models"
)

type cartTestContext struct {
	policy cart.ShippingPolicy
	store  *cart.Store
	err    error
}

func (c *cartTestContext) reset() {
	c.policy = cart.DefaultShippingPolicy()
	c.store = cart.NewStore()
	c.err = nil
}

func (c *cartTestContext) anEmptyCartWithShippingThresholdAndFlatFee(threshold, fee int) error {
	c.policy = cart.ShippingPolicy{
		FreeThreshold: decimal.NewFromInt(int64(threshold)),
		FlatFee:       decimal.NewFromInt(int64(fee)),
	}
	return nil
}

func (c *cartTestContext) theCartHoldsProduct(id, price string, quantity, stock int) error {
	unitPrice, err := decimal.NewFromString(price)
	if err != nil {
		return err
	}
	return c.store.AddOrUpdate(models.LineItem{
		ProductID:      id,
		Name:           id,
		UnitPrice:      unitPrice,
		AvailableStock: stock,
		Quantity:       quantity,
	})
}

func (c *cartTestContext) iIncrement(id string) error {
	c.err = c.store.Increment(id)
	return nil
}

func (c *cartTestContext) iDecrement(id string) error {
	c.err = c.store.Decrement(id)
	return nil
}

func (c *cartTestContext) summary() models.PriceSummary {
	return c.policy.Summarize(c.store.Items())
}

func expectAmount(label, want string, got decimal.Decimal) error {
	expected, err := decimal.NewFromString(want)
	if err != nil {
		return err
	}
	if !expected.Equal(got) {
		return fmt.Errorf("expected %s %s, got %s", label, want, got)
	}
	return nil
}

func (c *cartTestContext) theSubtotalIs(want string) error {
	return expectAmount("subtotal", want, c.summary().Subtotal)
}

func (c *cartTestContext) theShippingChargeIs(want string) error {
	return expectAmount("shipping charge", want, c.summary().ShippingCharge)
}

func (c *cartTestContext) theGrandTotalIs(want string) error {
	return expectAmount("grand total", want, c.summary().GrandTotal)
}

func (c *cartTestContext) theCartReports(kind string) error {
	var want error
	switch kind {
	case "stock exceeded":
		want = cart.ErrStockExceeded
	case "item not found":
		want = cart.ErrItemNotFound
	default:
		return fmt.Errorf("unknown error kind %q", kind)
	}
	if !errors.Is(c.err, want) {
		return fmt.Errorf("expected %v, got %v", want, c.err)
	}
	return nil
}

func (c *cartTestContext) hasQuantity(id string, quantity int) error {
	item, ok := c.store.Get(id)
	if !ok {
		return fmt.Errorf("%s is not in the cart", id)
	}
	if item.Quantity != quantity {
		return fmt.Errorf("expected %s quantity %d, got %d", id, quantity, item.Quantity)
	}
	return nil
}

func (c *cartTestContext) theCartDoesNotContain(id string) error {
	if _, ok := c.store.Get(id); ok {
		return fmt.Errorf("%s is still in the cart", id)
	}
	return nil
}

func InitializeScenario(ctx *godog.ScenarioContext) {
	tc := &cartTestContext{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		tc.reset()
		return ctx, nil
	})

	ctx.Step(`^an empty cart with shipping threshold (\d+) and flat fee (\d+)$`, tc.anEmptyCartWithShippingThresholdAndFlatFee)
	ctx.Step(`^the cart holds product "([^"]*)" priced "([^"]*)" with quantity (\d+) and stock (\d+)$`, tc.theCartHoldsProduct)
	ctx.Step(`^I increment "([^"]*)"$`, tc.iIncrement)
	ctx.Step(`^I decrement "([^"]*)"$`, tc.iDecrement)
	ctx.Step(`^the subtotal is "([^"]*)"$`, tc.theSubtotalIs)
	ctx.Step(`^the shipping charge is "([^"]*)"$`, tc.theShippingChargeIs)
	ctx.Step(`^the grand total is "([^"]*)"$`, tc.theGrandTotalIs)
	ctx.Step(`^the cart reports "([^"]*)"$`, tc.theCartReports)
	ctx.Step(`^"([^"]*)" has quantity (\d+)$`, tc.hasQuantity)
	ctx.Step(`^the cart does not contain "([^"]*)"$`, tc.theCartDoesNotContain)
}

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"cart.feature"},
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
