package repository

import (
	"go-inventory-loans/internal/model"

	"gorm.io/gorm"
)

type FeedbackRepository interface {
	Create(feedback *model.Feedback) error
	FindAll() ([]model.Feedback, error)
}

type feedbackRepo struct {
	db *gorm.DB
}

func NewFeedbackRepo(db *gorm.DB) FeedbackRepository {
	return &feedbackRepo{db}
}

func (r *feedbackRepo) Create(feedback *model.Feedback) error {
	return r.db.Create(feedback).Error
}

func (r *feedbackRepo) FindAll() ([]model.Feedback, error) {
	var feedbacks []model.Feedback
	err := r.db.Preload("User").Order("created_at DESC").Find(&feedbacks).Error
	return feedbacks, err
}
