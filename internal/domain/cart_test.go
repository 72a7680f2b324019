package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEffectivePrice_WithDiscount(t *testing.T) {
	p := Product{ID: 1, Price: 1000, Discount: 20}
	assert.InDelta(t, 800.0, p.EffectivePrice(), 1e-9)
}

func TestEffectivePrice_NoDiscount(t *testing.T) {
	p := Product{ID: 1, Price: 1000}
	assert.InDelta(t, 1000.0, p.EffectivePrice(), 1e-9)

	p.Discount = 0
	assert.InDelta(t, 1000.0, p.EffectivePrice(), 1e-9)
}

func TestAddProduct_DistinctProducts(t *testing.T) {
	cart := &Cart{}
	cart.AddProduct(Product{ID: 1, Price: 100})
	cart.AddProduct(Product{ID: 2, Price: 200})
	cart.AddProduct(Product{ID: 3, Price: 300})

	assert.Len(t, cart.Lines, 3)
	assert.Equal(t, 3, cart.ItemCount())
	assert.InDelta(t, 600.0, cart.Total(), 1e-9)
}

func TestAddProduct_SameProductIncrementsQuantity(t *testing.T) {
	cart := &Cart{}
	p := Product{ID: 7, Price: 150}
	for i := 0; i < 4; i++ {
		cart.AddProduct(p)
	}

	assert.Len(t, cart.Lines, 1)
	assert.Equal(t, 4, cart.Lines[0].Quantity)
	assert.Equal(t, 4, cart.ItemCount())
}

func TestRemoveProduct_Idempotent(t *testing.T) {
	cart := &Cart{}
	cart.AddProduct(Product{ID: 1, Price: 100})
	cart.AddProduct(Product{ID: 2, Price: 200})

	cart.RemoveProduct(1)
	assert.Len(t, cart.Lines, 1)

	// Second removal of the same id is a no-op.
	cart.RemoveProduct(1)
	assert.Len(t, cart.Lines, 1)
	assert.Equal(t, int64(2), cart.Lines[0].ID)
}

func TestClear(t *testing.T) {
	cart := &Cart{}
	cart.AddProduct(Product{ID: 1, Price: 100})
	cart.AddProduct(Product{ID: 1, Price: 100})
	cart.AddProduct(Product{ID: 2, Price: 50})

	cart.Clear()

	assert.Equal(t, 0, cart.ItemCount())
	assert.InDelta(t, 0.0, cart.Total(), 1e-9)
}

func TestTotal_AppliesDiscountPerLine(t *testing.T) {
	cart := &Cart{}
	cart.AddProduct(Product{ID: 1, Name: "Grand Theft Auto V", Price: 899, Discount: 20})
	cart.AddProduct(Product{ID: 4, Name: "Spotify Premium", Price: 599})

	assert.Equal(t, 2, cart.ItemCount())
	assert.InDelta(t, 899*0.8+599, cart.Total(), 1e-9)
}

func TestValidLines_DropsMalformedRecords(t *testing.T) {
	lines := []CartLine{
		{Product: Product{ID: 1, Price: 100}, Quantity: 2},
		{Product: Product{ID: 0, Price: 100}, Quantity: 1},  // no id
		{Product: Product{ID: -3, Price: 100}, Quantity: 1}, // negative id
		{Product: Product{ID: 5, Price: 100}, Quantity: 0},  // zero quantity
		{Product: Product{ID: 6, Price: 100}, Quantity: 1},
	}

	valid := ValidLines(lines)

	assert.Len(t, valid, 2)
	assert.Equal(t, int64(1), valid[0].ID)
	assert.Equal(t, int64(6), valid[1].ID)
}

func TestValidLines_EmptyInput(t *testing.T) {
	assert.Empty(t, ValidLines(nil))
}
