package cart

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/retail-pos/internal/inventory"
)

func product(id int64, name, local, unit string) inventory.Product {
	return inventory.Product{ID: id, Name: name, LocalizedName: local, Unit: unit}
}

func TestAddMergesSameProductAndUnit(t *testing.T) {
	var c Cart
	first := c.Add(product(1, "Sugar", "चीनी", "kg"), 3, "kg")
	second := c.Add(product(1, "Sugar", "चीनी", "kg"), 2, "kg")

	require.Len(t, c.Items, 1)
	require.Equal(t, first.ID, second.ID)
	require.Equal(t, 5, c.Items[0].Quantity)
	require.Equal(t, "kg", c.Items[0].Unit)
}

func TestAddSameProductDifferentUnit(t *testing.T) {
	var c Cart
	c.Add(product(1, "Sugar", "", "kg"), 3, "kg")
	c.Add(product(1, "Sugar", "", "kg"), 1, "packet")

	require.Len(t, c.Items, 2)
	require.Equal(t, "packet", c.Items[0].Unit)
	require.Equal(t, "kg", c.Items[1].Unit)
}

func TestAddPrependsNewest(t *testing.T) {
	var c Cart
	c.Add(product(1, "Rice", "", "kg"), 1, "kg")
	c.Add(product(2, "Sugar", "", "kg"), 1, "kg")

	require.Equal(t, "Sugar", c.Items[0].Name)
	require.Equal(t, "Rice", c.Items[1].Name)
}

func TestAddClampsQuantity(t *testing.T) {
	var c Cart
	c.Add(product(1, "Rice", "", "kg"), 0, "kg")
	require.Equal(t, 1, c.Items[0].Quantity)

	c.Add(product(2, "Sugar", "", "kg"), -4, "kg")
	require.Equal(t, 1, c.Items[0].Quantity)
}

func TestMergeKeepsPosition(t *testing.T) {
	var c Cart
	c.Add(product(1, "Rice", "", "kg"), 1, "kg")
	c.Add(product(2, "Sugar", "", "kg"), 1, "kg")
	c.Add(product(1, "Rice", "", "kg"), 2, "kg")

	require.Len(t, c.Items, 2)
	require.Equal(t, "Sugar", c.Items[0].Name)
	require.Equal(t, "Rice", c.Items[1].Name)
	require.Equal(t, 3, c.Items[1].Quantity)
}

func TestEdit(t *testing.T) {
	var c Cart
	item := c.Add(product(1, "Rice", "", "kg"), 1, "kg")

	require.True(t, c.Edit(item.ID, 7, "bag"))
	require.Equal(t, 7, c.Items[0].Quantity)
	require.Equal(t, "bag", c.Items[0].Unit)
}

func TestEditUnknownIDIsNoOp(t *testing.T) {
	var c Cart
	c.Add(product(1, "Rice", "", "kg"), 1, "kg")
	before := c.Items[0]

	require.False(t, c.Edit("missing", 9, "kg"))
	require.Equal(t, before, c.Items[0])
}

func TestRemove(t *testing.T) {
	var c Cart
	keep := c.Add(product(1, "Rice", "", "kg"), 1, "kg")
	drop := c.Add(product(2, "Sugar", "", "kg"), 1, "kg")

	require.True(t, c.Remove(drop.ID))
	require.Len(t, c.Items, 1)
	require.Equal(t, keep.ID, c.Items[0].ID)

	require.False(t, c.Remove(drop.ID))
}

func TestLinesPrefersLocalizedName(t *testing.T) {
	var c Cart
	c.Add(product(1, "Cashew", "काजू", "kg"), 2, "kg")
	c.Add(product(2, "Rice", "", "kg"), 1, "kg")

	lines := c.Lines()
	require.Len(t, lines, 2)
	require.Equal(t, "Rice", lines[0].Name)
	require.Equal(t, "काजू", lines[1].Name)
	require.Equal(t, 2, lines[1].Quantity)
	require.Equal(t, "kg", lines[1].Unit)
}

func TestStateClearResetsEverything(t *testing.T) {
	var s State
	s.Cart.Add(product(1, "Rice", "", "kg"), 1, "kg")
	s.SetCustomer(CustomerInfo{CustomerName: "Ramesh", Mobile: "9876543210"})

	s.Clear()

	require.Empty(t, s.Cart.Items)
	require.Empty(t, s.CustomerName)
	require.Empty(t, s.Mobile)
}
