package domain

// CartLine is a product selected for purchase plus a quantity. The
// embedded product keeps the persisted snapshot format flat: an array
// of product records, each carrying a quantity field.
type CartLine struct {
	Product
	Quantity int `json:"quantity"`
}

// Cart holds the lines selected during one browsing session. Lines are
// kept in insertion order and keyed by product id: adding a product
// that is already present increments its quantity instead of appending
// a duplicate line.
type Cart struct {
	SessionID string
	Lines     []CartLine
}

// AddProduct inserts a new line with quantity 1, or increments the
// quantity of the existing line for the same product id. The product is
// accepted as-is; the cart does not second-guess the catalog.
func (c *Cart) AddProduct(p Product) {
	for i := range c.Lines {
		if c.Lines[i].ID == p.ID {
			c.Lines[i].Quantity++
			return
		}
	}
	c.Lines = append(c.Lines, CartLine{Product: p, Quantity: 1})
}

// RemoveProduct deletes the line with the given product id. Removing an
// absent product is a no-op.
func (c *Cart) RemoveProduct(productID int64) {
	for i, line := range c.Lines {
		if line.ID == productID {
			c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
			return
		}
	}
}

// Clear drops every line.
func (c *Cart) Clear() {
	c.Lines = nil
}

// Total sums effective line prices times quantities. It is recomputed
// from the line collection on every call rather than maintained
// incrementally, so it cannot drift from the lines.
func (c *Cart) Total() float64 {
	var sum float64
	for _, line := range c.Lines {
		sum += line.EffectivePrice() * float64(line.Quantity)
	}
	return sum
}

// ItemCount sums quantities across all lines.
func (c *Cart) ItemCount() int {
	var n int
	for _, line := range c.Lines {
		n += line.Quantity
	}
	return n
}

// ValidLines filters a deserialized line collection down to records
// that satisfy the cart invariants: positive product id and quantity of
// at least 1. Snapshots written by older or broken clients are repaired
// on load instead of being propagated.
func ValidLines(lines []CartLine) []CartLine {
	valid := make([]CartLine, 0, len(lines))
	for _, line := range lines {
		if line.ID <= 0 || line.Quantity < 1 {
			continue
		}
		valid = append(valid, line)
	}
	return valid
}
