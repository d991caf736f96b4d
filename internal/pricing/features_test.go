package pricing

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/cucumber/godog"
	"github.com/shopspring/decimal"
)

type pricingTestContext struct {
	calc   *Calculator
	lines  []Line
	totals Totals
	err    error
}

func (c *pricingTestContext) reset() {
	c.calc = NewCalculator(DefaultConfig())
	c.lines = nil
	c.totals = Totals{}
	c.err = nil
}

func (c *pricingTestContext) aCartLinePricedWithQuantity(price string, qty int) error {
	p, err := decimal.NewFromString(price)
	if err != nil {
		return err
	}
	c.lines = append(c.lines, Line{Price: p, Quantity: qty})
	return nil
}

func (c *pricingTestContext) totalsAreCalculatedWithShipping(method string) error {
	c.totals, c.err = c.calc.Calculate(c.lines, ShippingMethod(method))
	return nil
}

func expectMoney(field, want string, got decimal.Decimal) error {
	if got.StringFixed(2) != want {
		return fmt.Errorf("expected %s %s, got %s", field, want, got.StringFixed(2))
	}
	return nil
}

func (c *pricingTestContext) noError() error {
	if c.err != nil {
		return fmt.Errorf("unexpected error: %w", c.err)
	}
	return nil
}

func (c *pricingTestContext) theSubtotalIs(want string) error {
	if err := c.noError(); err != nil {
		return err
	}
	return expectMoney("subtotal", want, c.totals.Subtotal)
}

func (c *pricingTestContext) theShippingCostIs(want string) error {
	return expectMoney("shipping cost", want, c.totals.ShippingCost)
}

func (c *pricingTestContext) theTaxIs(want string) error {
	return expectMoney("tax", want, c.totals.Tax)
}

func (c *pricingTestContext) theTotalIs(want string) error {
	return expectMoney("total", want, c.totals.Total)
}

func (c *pricingTestContext) theAmountChargedIsMinorUnits(want int64) error {
	if got := MinorUnits(c.totals.Total); got != want {
		return fmt.Errorf("expected %d minor units, got %d", want, got)
	}
	return nil
}

func (c *pricingTestContext) totalsAreRefusedBecauseFreeShippingDoesNotApply() error {
	if !errors.Is(c.err, ErrFreeShippingNotEligible) {
		return fmt.Errorf("expected ErrFreeShippingNotEligible, got %v", c.err)
	}
	return nil
}

func InitializeScenario(ctx *godog.ScenarioContext) {
	tc := &pricingTestContext{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		tc.reset()
		return ctx, nil
	})

	ctx.Step(`^a cart line priced (\d+\.\d+) with quantity (\d+)$`, tc.aCartLinePricedWithQuantity)
	ctx.Step(`^totals are calculated with "([^"]*)" shipping$`, tc.totalsAreCalculatedWithShipping)
	ctx.Step(`^the subtotal is (\d+\.\d+)$`, tc.theSubtotalIs)
	ctx.Step(`^the shipping cost is (\d+\.\d+)$`, tc.theShippingCostIs)
	ctx.Step(`^the tax is (\d+\.\d+)$`, tc.theTaxIs)
	ctx.Step(`^the total is (\d+\.\d+)$`, tc.theTotalIs)
	ctx.Step(`^the amount charged is (\d+) minor units$`, tc.theAmountChargedIsMinorUnits)
	ctx.Step(`^totals are refused because free shipping does not apply$`, tc.totalsAreRefusedBecauseFreeShippingDoesNotApply)
}

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features"},
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
