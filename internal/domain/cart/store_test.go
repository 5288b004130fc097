package cart

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/studio-storefront/internal/domain/pricing"
	"github.com/your-org/studio-storefront/internal/pkg/kvstore"
	"github.com/your-org/studio-storefront/internal/pkg/logger"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func loadStore(t *testing.T, kv kvstore.KeyValueStore) *Store {
	t.Helper()
	st, err := Load(context.Background(), kv, "sess-1", logger.Discard())
	require.NoError(t, err)
	return st
}

func quantityOf(st *Store, id string) int {
	for _, item := range st.Items() {
		if item.ID == id {
			return item.Quantity
		}
	}
	return 0
}

func TestStore_AddMergesByID(t *testing.T) {
	ctx := context.Background()
	st := loadStore(t, kvstore.NewMemoryStore())

	page := LineItem{ID: "extra-page", Name: "Extra Page", UnitPrice: d("75")}
	require.NoError(t, st.AddLineItem(ctx, page))
	require.NoError(t, st.AddLineItem(ctx, page))

	items := st.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Quantity)
	assert.True(t, d("150").Equal(pricing.LineItemTotal(items[0])))

	totals := st.Totals()
	assert.True(t, d("150").Equal(totals.CartTotal))
	assert.True(t, d("150").Equal(totals.GrandTotal))
	assert.Equal(t, 2, totals.ItemCount)
}

func TestStore_AddIgnoresCallerQuantity(t *testing.T) {
	ctx := context.Background()
	st := loadStore(t, kvstore.NewMemoryStore())

	require.NoError(t, st.AddLineItem(ctx, LineItem{ID: "hosting", UnitPrice: d("50"), Quantity: 7}))
	assert.Equal(t, 1, quantityOf(st, "hosting"))
}

func TestStore_NetAddsMinusRemoves(t *testing.T) {
	ctx := context.Background()
	ops := []struct {
		add bool
		id  string
	}{
		{true, "domain"}, {true, "rush"}, {true, "domain"}, {false, "domain"},
		{false, "rush"}, {false, "rush"}, {true, "domain"}, {false, "missing"},
		{true, "rush"},
	}

	st := loadStore(t, kvstore.NewMemoryStore())
	want := map[string]int{}
	for _, op := range ops {
		if op.add {
			require.NoError(t, st.AddLineItem(ctx, LineItem{ID: op.id, UnitPrice: d("10")}))
			want[op.id]++
		} else {
			require.NoError(t, st.RemoveLineItem(ctx, op.id))
			if want[op.id] > 0 {
				want[op.id]--
			}
		}
	}

	for id, q := range want {
		assert.Equal(t, q, quantityOf(st, id), id)
	}
	for _, item := range st.Items() {
		assert.Positive(t, item.Quantity, "zero quantity entries are removed")
	}
	assert.True(t, pricing.CartTotal(st.Items()).Equal(st.Totals().CartTotal))
}

func TestStore_SetLineItemQuantity(t *testing.T) {
	ctx := context.Background()
	st := loadStore(t, kvstore.NewMemoryStore())
	require.NoError(t, st.AddLineItem(ctx, LineItem{ID: "logo", UnitPrice: d("300")}))

	require.NoError(t, st.SetLineItemQuantity(ctx, "logo", 4))
	assert.Equal(t, 4, quantityOf(st, "logo"))
	assert.True(t, d("1200").Equal(st.Totals().CartTotal))

	require.NoError(t, st.SetLineItemQuantity(ctx, "unknown", 3))
	assert.Len(t, st.Items(), 1)

	require.NoError(t, st.SetLineItemQuantity(ctx, "logo", 0))
	assert.Empty(t, st.Items())
}

func TestStore_SelectPlanReplaces(t *testing.T) {
	ctx := context.Background()
	st := loadStore(t, kvstore.NewMemoryStore())

	require.NoError(t, st.SelectPlan(ctx, &Plan{Name: "Starter Site", Price: pricing.NewTextPrice("$500")}))
	require.NoError(t, st.SelectPlan(ctx, &Plan{Name: "Business Site", Price: pricing.NewPrice(d("1500"))}))

	require.NotNil(t, st.Plan())
	assert.Equal(t, "Business Site", st.Plan().Name)
	assert.True(t, d("1500").Equal(st.Totals().PlanTotal))
	assert.Equal(t, 1, st.Totals().ItemCount)

	require.NoError(t, st.SelectPlan(ctx, nil))
	assert.Nil(t, st.Plan())
	assert.Equal(t, 0, st.Totals().ItemCount)
}

func TestStore_ItemCountIncludesPlan(t *testing.T) {
	ctx := context.Background()
	st := loadStore(t, kvstore.NewMemoryStore())

	require.NoError(t, st.SelectPlan(ctx, &Plan{Name: "Starter Site", Price: pricing.NewTextPrice("$500")}))
	require.NoError(t, st.AddLineItem(ctx, LineItem{ID: "hosting", UnitPrice: d("50")}))
	require.NoError(t, st.AddLineItem(ctx, LineItem{ID: "hosting", UnitPrice: d("50")}))

	totals := st.Totals()
	assert.Equal(t, 3, totals.ItemCount)
	assert.True(t, d("600").Equal(totals.GrandTotal))
}

func TestStore_Clear(t *testing.T) {
	ctx := context.Background()
	kv := kvstore.NewMemoryStore()
	st := loadStore(t, kv)

	require.NoError(t, st.SelectPlan(ctx, &Plan{Name: "Online Store", Price: pricing.NewPrice(d("3200"))}))
	require.NoError(t, st.AddLineItem(ctx, LineItem{ID: "hosting", UnitPrice: d("50")}))
	require.Equal(t, 2, kv.Len())

	require.NoError(t, st.Clear(ctx))

	totals := st.Totals()
	assert.True(t, totals.CartTotal.IsZero())
	assert.Equal(t, 0, totals.ItemCount)
	assert.Nil(t, st.Plan())
	assert.Equal(t, 0, kv.Len())

	reloaded := loadStore(t, kv)
	assert.Empty(t, reloaded.Items())
	assert.Nil(t, reloaded.Plan())
}

func TestStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	kv := kvstore.NewMemoryStore()
	st := loadStore(t, kv)

	require.NoError(t, st.SelectPlan(ctx, &Plan{
		Name:         "Starter Site",
		Price:        pricing.NewTextPrice("$500"),
		Features:     []string{"5 pages"},
		DeliveryTime: "2 weeks",
		Revisions:    "2 rounds",
	}))
	require.NoError(t, st.AddLineItem(ctx, LineItem{ID: "extra-page", Name: "Extra Page", UnitPrice: d("75")}))
	require.NoError(t, st.AddLineItem(ctx, LineItem{ID: "copy", UnitPrice: d("19.99")}))
	require.NoError(t, st.AddLineItem(ctx, LineItem{ID: "extra-page", Name: "Extra Page", UnitPrice: d("75")}))

	reloaded := loadStore(t, kv)

	before, after := st.Items(), reloaded.Items()
	require.Len(t, after, len(before))
	for i := range before {
		assert.Equal(t, before[i].ID, after[i].ID)
		assert.Equal(t, before[i].Name, after[i].Name)
		assert.Equal(t, before[i].Quantity, after[i].Quantity)
		assert.True(t, before[i].UnitPrice.Equal(after[i].UnitPrice))
	}

	require.NotNil(t, reloaded.Plan())
	assert.Equal(t, "Starter Site", reloaded.Plan().Name)
	assert.Equal(t, "$500", reloaded.Plan().Price.String())
	assert.Equal(t, []string{"5 pages"}, reloaded.Plan().Features)
	assert.True(t, st.Totals().GrandTotal.Equal(reloaded.Totals().GrandTotal))
}

func TestLoad_CorruptDataIsEmpty(t *testing.T) {
	ctx := context.Background()
	kv := kvstore.NewMemoryStore()
	require.NoError(t, kv.Set(ctx, itemsKey("sess-1"), []byte("{not json")))
	require.NoError(t, kv.Set(ctx, planKey("sess-1"), []byte(`["wrong shape"]`)))

	st := loadStore(t, kv)
	assert.Empty(t, st.Items())
	assert.Nil(t, st.Plan())
	assert.Equal(t, 0, st.Totals().ItemCount)
}

func TestLoad_SanitizesStoredItems(t *testing.T) {
	ctx := context.Background()
	kv := kvstore.NewMemoryStore()
	raw := `[
		{"id":"hosting","unit_price":"50","quantity":1},
		{"id":"hosting","unit_price":"50","quantity":2},
		{"id":"","unit_price":"10","quantity":1},
		{"id":"rush","unit_price":"200","quantity":0},
		{"id":"domain","unit_price":"-25","quantity":1}
	]`
	require.NoError(t, kv.Set(ctx, itemsKey("sess-1"), []byte(raw)))

	st := loadStore(t, kv)
	items := st.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "hosting", items[0].ID)
	assert.Equal(t, 3, items[0].Quantity)
}

type failingKV struct {
	kvstore.KeyValueStore
}

func (failingKV) Get(context.Context, string) ([]byte, error) {
	return nil, errors.New("connection refused")
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(context.Background(), kvstore.NewMemoryStore(), "", logger.Discard())
	assert.Error(t, err)

	_, err = Load(context.Background(), failingKV{kvstore.NewMemoryStore()}, "sess-1", logger.Discard())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestStore_ItemsAreCopies(t *testing.T) {
	ctx := context.Background()
	st := loadStore(t, kvstore.NewMemoryStore())
	require.NoError(t, st.AddLineItem(ctx, LineItem{ID: "hosting", UnitPrice: d("50")}))

	items := st.Items()
	items[0].Quantity = 99
	assert.Equal(t, 1, quantityOf(st, "hosting"))
}
