package model

import "github.com/google/uuid"

type LedgerDirection string

const (
	LedgerIn  LedgerDirection = "IN"
	LedgerOut LedgerDirection = "OUT"
)

// LedgerEntry is an append-only audit record of a stock change.
// Entries are never updated or deleted after creation.
type LedgerEntry struct {
	BaseModel
	ItemID    uuid.UUID       `gorm:"type:uuid;not null;index" json:"item_id" validate:"uuid_required"`
	Item      Item            `json:"item" validate:"-"` // Relasi - skip validation
	Direction LedgerDirection `gorm:"type:varchar(10);not null" json:"direction" validate:"required,oneof=IN OUT"`
	Quantity  int             `gorm:"not null" json:"quantity" validate:"required,gt=0"` // Qty harus > 0
	Note      string          `json:"note"`

	// Actor is optional, anonymous stock adjustments are allowed
	UserID *uuid.UUID `gorm:"type:uuid;index" json:"user_id,omitempty"`
	User   *User      `gorm:"foreignKey:UserID;references:ID" json:"user,omitempty" validate:"-"`
}
