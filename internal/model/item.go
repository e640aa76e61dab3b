package model

// Stock status values derived from stock vs minimum threshold
const (
	StockAvailable  = "available"
	StockLow        = "low_stock"
	StockOutOfStock = "out_of_stock"
)

// DefaultMinimumStock is applied when an item is created without a threshold
const DefaultMinimumStock = 5

type Item struct {
	BaseModel
	Name    string `gorm:"type:varchar(100);uniqueIndex;not null" json:"name" validate:"required"`
	Stock   int    `gorm:"default:0" json:"stock" validate:"gte=0"`
	Price   int64  `gorm:"default:0" json:"price" validate:"gte=0"`
	Minimum int    `gorm:"default:5" json:"minimum" validate:"gte=0"` // Low-stock alert threshold

	// Relasi
	LedgerEntries []LedgerEntry `json:"ledger_entries,omitempty"`
	Loans         []Loan        `json:"loans,omitempty"`
}

// IsLowStock reports whether stock has fallen to the alert threshold
func (i *Item) IsLowStock() bool {
	return i.Stock > 0 && i.Stock <= i.Minimum
}

// IsOutOfStock reports whether the item has no stock left
func (i *Item) IsOutOfStock() bool {
	return i.Stock <= 0
}

// StockStatus returns the derived availability status
func (i *Item) StockStatus() string {
	if i.Stock <= 0 {
		return StockOutOfStock
	}
	if i.Stock <= i.Minimum {
		return StockLow
	}
	return StockAvailable
}

// ItemResponse is the API shape for an item, including derived status
type ItemResponse struct {
	Item
	Status string `json:"status"`
}

func (i *Item) ToResponse() ItemResponse {
	return ItemResponse{Item: *i, Status: i.StockStatus()}
}
