package model

import "github.com/google/uuid"

// Feedback is a free-form message a user leaves for the admins
type Feedback struct {
	BaseModel
	UserID  uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id" validate:"uuid_required"`
	User    User      `json:"user" validate:"-"`
	Message string    `gorm:"type:text;not null" json:"message" validate:"required"`
}
