package inventory

// Product is one row of the shop's inventory. LocalizedName carries the
// Devanagari rendering shown on printed bills; Unit is a free-text label
// (e.g. "किग्रा", "पैकेट").
type Product struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	LocalizedName string `json:"localizedName"`
	Unit          string `json:"unit"`
}

// ProductInput is the payload for create and update operations.
type ProductInput struct {
	Name          string `json:"name" validate:"required,min=1,max=255"`
	LocalizedName string `json:"localizedName" validate:"required,min=1,max=255"`
	Unit          string `json:"unit" validate:"required,min=1,max=50"`
}
