package service

import (
	"strings"

	"go-inventory-loans/internal/model"
	"go-inventory-loans/internal/repository"

	"github.com/google/uuid"
)

type FeedbackService interface {
	CreateFeedback(userID uuid.UUID, message string) (*model.Feedback, error)
	GetAllFeedback() ([]model.Feedback, error)
}

type feedbackService struct {
	feedbackRepo repository.FeedbackRepository
	userRepo     repository.UserRepository
}

func NewFeedbackService(feedbackRepo repository.FeedbackRepository, userRepo repository.UserRepository) FeedbackService {
	return &feedbackService{
		feedbackRepo: feedbackRepo,
		userRepo:     userRepo,
	}
}

func (s *feedbackService) CreateFeedback(userID uuid.UUID, message string) (*model.Feedback, error) {
	if strings.TrimSpace(message) == "" {
		return nil, ErrEmptyFeedback
	}

	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return nil, ErrUserNotFound
	}

	feedback := &model.Feedback{
		UserID:  user.ID,
		Message: message,
	}
	feedback.CreatedBy = user.ID.String()

	if err := s.feedbackRepo.Create(feedback); err != nil {
		return nil, err
	}
	return feedback, nil
}

func (s *feedbackService) GetAllFeedback() ([]model.Feedback, error) {
	return s.feedbackRepo.FindAll()
}
