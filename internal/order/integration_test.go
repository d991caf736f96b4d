//go:build integration

package order

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"boutique-be/internal/inventory"
	"boutique-be/internal/migrate"
	"boutique-be/internal/payment"
	"boutique-be/internal/pricing"

	embeddedpostgres "github.com/fergusstrange/embedded-postgres"
	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const integrationPort = 54329

var testDB *sql.DB

func TestMain(m *testing.M) {
	pg := embeddedpostgres.NewDatabase(embeddedpostgres.DefaultConfig().
		Port(integrationPort).
		Database("boutique_test"))
	if err := pg.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "start embedded postgres: %v\n", err)
		os.Exit(1)
	}

	code := func() int {
		dsn := fmt.Sprintf("host=localhost port=%d user=postgres password=postgres dbname=boutique_test sslmode=disable", integrationPort)
		conn, err := sql.Open("postgres", dsn)
		if err != nil {
			fmt.Fprintf(os.Stderr, "open db: %v\n", err)
			return 1
		}
		defer conn.Close()

		err = migrate.Run(context.Background(), conn, migrate.ModeUp, filepath.Join("..", "..", "migrations"))
		if err != nil {
			fmt.Fprintf(os.Stderr, "migrate: %v\n", err)
			return 1
		}

		testDB = conn
		return m.Run()
	}()

	if err := pg.Stop(); err != nil {
		fmt.Fprintf(os.Stderr, "stop embedded postgres: %v\n", err)
	}
	os.Exit(code)
}

type fixture struct {
	repo     Repository
	payments payment.Repository
	userID   uint
	seq      atomic.Int64
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		repo:     NewRepository(testDB, inventory.NewRepository(testDB), payment.NewRepository(testDB)),
		payments: payment.NewRepository(testDB),
	}
	err := testDB.QueryRow(
		`INSERT INTO users (name, email, password, role) VALUES ($1, $2, 'x', 'user') RETURNING id`,
		t.Name(), fmt.Sprintf("%s@example.com", filepath.Base(t.Name())),
	).Scan(&f.userID)
	require.NoError(t, err)
	return f
}

func (f *fixture) product(t *testing.T, price string, stock map[int]int) uint {
	t.Helper()
	var id uint
	err := testDB.QueryRow(`INSERT INTO products (name, price) VALUES ($1, $2) RETURNING id`, t.Name(), price).Scan(&id)
	require.NoError(t, err)
	for size, qty := range stock {
		_, err := testDB.Exec(`INSERT INTO product_variants (product_id, size, quantity) VALUES ($1, $2, $3)`, id, size, qty)
		require.NoError(t, err)
	}
	return id
}

func (f *fixture) stock(t *testing.T, productID uint, size int) int {
	t.Helper()
	var qty int
	require.NoError(t, testDB.QueryRow(
		`SELECT quantity FROM product_variants WHERE product_id = $1 AND size = $2`, productID, size,
	).Scan(&qty))
	return qty
}

// order builds an order with its own succeeded payment row.
func (f *fixture) order(t *testing.T, lines ...Line) *Order {
	t.Helper()
	ref := fmt.Sprintf("pi_%s_%d", filepath.Base(t.Name()), f.seq.Add(1))
	require.NoError(t, f.payments.Create(context.Background(), &payment.Payment{
		IntentID: ref, UserID: f.userID, AmountMinor: 100, Currency: "eur", Status: payment.StatusSucceeded,
	}))

	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Subtotal())
	}
	return &Order{
		UserID:         f.userID,
		Total:          total,
		ShippingMethod: pricing.ShippingStandard,
		AmountCharged:  total,
		Currency:       "eur",
		Status:         StatusPending,
		ShippingAddress: ShippingAddress{
			FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com",
			Address: "1 Main St", City: "London", PostalCode: "N1", Country: "UK",
		},
		PaymentReference: ref,
		Lines:            lines,
	}
}

func countOrders(t *testing.T, ref string) int {
	t.Helper()
	var n int
	require.NoError(t, testDB.QueryRow(`SELECT COUNT(*) FROM orders WHERE payment_reference = $1`, ref).Scan(&n))
	return n
}

func TestIntegration_ConcurrentOrdersForLastUnits(t *testing.T) {
	f := newFixture(t)
	pid := f.product(t, "40.00", map[int]int{6: 3})
	price := decimal.RequireFromString("40.00")

	orders := []*Order{
		f.order(t, Line{ProductID: pid, Size: 6, Quantity: 2, Price: price}),
		f.order(t, Line{ProductID: pid, Size: 6, Quantity: 2, Price: price}),
	}

	errs := make([]error, len(orders))
	var wg sync.WaitGroup
	for i, o := range orders {
		wg.Add(1)
		go func(i int, o *Order) {
			defer wg.Done()
			errs[i] = f.repo.Commit(context.Background(), o)
		}(i, o)
	}
	wg.Wait()

	var committed, short int
	for _, err := range errs {
		var stockErr *InsufficientStockError
		switch {
		case err == nil:
			committed++
		case errors.As(err, &stockErr):
			short++
			require.Len(t, stockErr.Lines, 1)
			assert.Equal(t, 1, stockErr.Lines[0].Available)
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	assert.Equal(t, 1, committed)
	assert.Equal(t, 1, short)
	assert.Equal(t, 1, f.stock(t, pid, 6))
}

func TestIntegration_StockNeverNegative(t *testing.T) {
	f := newFixture(t)
	pid := f.product(t, "10.00", map[int]int{4: 10})
	price := decimal.RequireFromString("10.00")

	const buyers = 25
	orders := make([]*Order, buyers)
	for i := range orders {
		orders[i] = f.order(t, Line{ProductID: pid, Size: 4, Quantity: 1, Price: price})
	}

	var ok atomic.Int64
	var wg sync.WaitGroup
	for _, o := range orders {
		wg.Add(1)
		go func(o *Order) {
			defer wg.Done()
			if err := f.repo.Commit(context.Background(), o); err == nil {
				ok.Add(1)
			} else {
				assert.ErrorIs(t, err, inventory.ErrInsufficientStock)
			}
		}(o)
	}
	wg.Wait()

	assert.Equal(t, int64(10), ok.Load())
	assert.Equal(t, 0, f.stock(t, pid, 4))
}

func TestIntegration_CommitIsAllOrNothing(t *testing.T) {
	f := newFixture(t)
	pid := f.product(t, "25.00", map[int]int{5: 4, 7: 1})
	price := decimal.RequireFromString("25.00")

	o := f.order(t,
		Line{ProductID: pid, Size: 5, Quantity: 2, Price: price},
		Line{ProductID: pid, Size: 7, Quantity: 2, Price: price},
	)

	err := f.repo.Commit(context.Background(), o)

	var stockErr *InsufficientStockError
	require.True(t, errors.As(err, &stockErr))
	assert.Equal(t, []ShortLine{{ProductID: pid, Size: 7, Requested: 2, Available: 1}}, stockErr.Lines)
	assert.Equal(t, 4, f.stock(t, pid, 5))
	assert.Equal(t, 1, f.stock(t, pid, 7))
	assert.Zero(t, countOrders(t, o.PaymentReference))

	p, err := f.payments.GetByIntentID(context.Background(), o.PaymentReference)
	require.NoError(t, err)
	assert.Equal(t, payment.StatusSucceeded, p.Status)
}

func TestIntegration_BoundaryQuantity(t *testing.T) {
	f := newFixture(t)
	pid := f.product(t, "30.00", map[int]int{8: 2, 9: 2})
	price := decimal.RequireFromString("30.00")

	err := f.repo.Commit(context.Background(), f.order(t, Line{ProductID: pid, Size: 9, Quantity: 3, Price: price}))
	assert.ErrorIs(t, err, inventory.ErrInsufficientStock)
	assert.Equal(t, 2, f.stock(t, pid, 9))

	require.NoError(t, f.repo.Commit(context.Background(), f.order(t, Line{ProductID: pid, Size: 8, Quantity: 2, Price: price})))
	assert.Equal(t, 0, f.stock(t, pid, 8))
}

func TestIntegration_PriceIsCapturedAtCommit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pid := f.product(t, "50.00", map[int]int{3: 5})

	o := f.order(t, Line{ProductID: pid, Size: 3, Quantity: 1, Price: decimal.RequireFromString("50.00"), Name: "Boot"})
	require.NoError(t, f.repo.Commit(ctx, o))

	_, err := testDB.Exec(`UPDATE products SET price = 75.00 WHERE id = $1`, pid)
	require.NoError(t, err)

	got, err := f.repo.GetByID(ctx, o.ID)
	require.NoError(t, err)
	require.Len(t, got.Lines, 1)
	assert.True(t, decimal.RequireFromString("50.00").Equal(got.Lines[0].Price))
	assert.True(t, decimal.RequireFromString("50.00").Equal(got.Total))

	p, err := f.payments.GetByIntentID(ctx, o.PaymentReference)
	require.NoError(t, err)
	assert.Equal(t, payment.StatusConsumed, p.Status)
	require.NotNil(t, p.OrderID)
	assert.Equal(t, o.ID, *p.OrderID)
}

func TestIntegration_SamePaymentCommitsOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pid := f.product(t, "20.00", map[int]int{2: 5})
	price := decimal.RequireFromString("20.00")

	o := f.order(t, Line{ProductID: pid, Size: 2, Quantity: 1, Price: price})
	require.NoError(t, f.repo.Commit(ctx, o))

	again := *o
	again.ID = 0
	assert.ErrorIs(t, f.repo.Commit(ctx, &again), ErrDuplicatePayment)
	assert.Equal(t, 1, countOrders(t, o.PaymentReference))
	assert.Equal(t, 4, f.stock(t, pid, 2))
}

func TestIntegration_RefundClaimBlocksCommit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pid := f.product(t, "15.00", map[int]int{4: 3})

	o := f.order(t, Line{ProductID: pid, Size: 4, Quantity: 1, Price: decimal.RequireFromString("15.00")})
	require.NoError(t, f.payments.ClaimRefund(ctx, o.PaymentReference))

	err := f.repo.Commit(ctx, o)
	assert.ErrorIs(t, err, payment.ErrPaymentClosed)
	assert.Zero(t, countOrders(t, o.PaymentReference))
	assert.Equal(t, 3, f.stock(t, pid, 4))

	assert.ErrorIs(t, f.payments.ClaimRefund(ctx, o.PaymentReference), payment.ErrPaymentClosed)
}

func TestIntegration_QuoteRoundTripsThroughJSONB(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	ref := fmt.Sprintf("pi_quote_%d", f.seq.Add(1))

	require.NoError(t, f.payments.Create(ctx, &payment.Payment{
		IntentID: ref, UserID: f.userID, AmountMinor: 12499, Currency: "eur",
		Quote: []byte(`{"shippingMethod":"standard","lines":[{"productId":1,"size":4,"quantity":1,"price":"50"}]}`),
	}))

	p, err := f.payments.GetByIntentID(ctx, ref)
	require.NoError(t, err)
	var quote paidCart
	require.NoError(t, json.Unmarshal(p.Quote, &quote))
	assert.Equal(t, pricing.ShippingStandard, quote.ShippingMethod)
	require.Len(t, quote.Lines, 1)
	assert.True(t, decimal.RequireFromString("50").Equal(quote.Lines[0].Price))
}
