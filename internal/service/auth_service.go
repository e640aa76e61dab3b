package service

import (
	"errors"
	"os"
	"strings"

	"go-inventory-loans/internal/model"
	"go-inventory-loans/internal/repository"
	"go-inventory-loans/pkg/jwt"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserInactive       = errors.New("user account is inactive")
	ErrEmailTaken         = errors.New("email already registered")
	ErrNameTaken          = errors.New("name already in use")
	ErrInvalidAdminCode   = errors.New("admin code required to register as admin")
)

type AuthService interface {
	Login(email, password string) (*LoginResponse, error)
	Register(req *RegisterInput) (*model.User, error)
}

type LoginResponse struct {
	Token string             `json:"token"`
	User  model.UserResponse `json:"user"`
}

type RegisterInput struct {
	Name        string `json:"name" validate:"required"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=6"`
	Role        string `json:"role" validate:"omitempty,oneof=admin user"`
	AdminCode   string `json:"admin_code"`
	Department  string `json:"department"`
	PhoneNumber string `json:"phone_number"`
}

type authService struct {
	userRepo repository.UserRepository
}

func NewAuthService(userRepo repository.UserRepository) AuthService {
	return &authService{userRepo: userRepo}
}

// adminRegistrationCode gates self-registration of admin accounts
func adminRegistrationCode() string {
	code := os.Getenv("ADMIN_REGISTRATION_CODE")
	if code == "" {
		code = "ADMIN2025"
	}
	return code
}

func (s *authService) Login(email, password string) (*LoginResponse, error) {
	user, err := s.userRepo.FindByEmail(email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	if !user.IsActive {
		return nil, ErrUserInactive
	}

	if !user.CheckPassword(password) {
		return nil, ErrInvalidCredentials
	}

	token, err := jwt.GenerateToken(user.ID, user.Email, user.Name, user.Role)
	if err != nil {
		return nil, errors.New("failed to generate token")
	}

	return &LoginResponse{
		Token: token,
		User:  user.ToResponse(),
	}, nil
}

func (s *authService) Register(req *RegisterInput) (*model.User, error) {
	if err := validateInput(req); err != nil {
		return nil, err
	}

	role := req.Role
	if role == "" {
		role = model.RoleUser
	}
	if role == model.RoleAdmin && req.AdminCode != adminRegistrationCode() {
		return nil, ErrInvalidAdminCode
	}

	if existing, _ := s.userRepo.FindByEmail(req.Email); existing != nil {
		return nil, ErrEmailTaken
	}
	if existing, _ := s.userRepo.FindByName(strings.TrimSpace(req.Name)); existing != nil {
		return nil, ErrNameTaken
	}

	user := &model.User{
		Name:        strings.TrimSpace(req.Name),
		Email:       req.Email,
		Role:        role,
		Department:  req.Department,
		PhoneNumber: req.PhoneNumber,
		IsActive:    true,
	}
	if err := user.SetPassword(req.Password); err != nil {
		return nil, err
	}
	user.CreatedBy = "self-registration"
	user.UpdatedBy = "self-registration"

	if err := s.userRepo.Create(user); err != nil {
		return nil, err
	}

	return user, nil
}
