package service

import (
	"context"
	"errors"
	"os"
	"time"

	"backend/internal/apperr"
	"backend/internal/model"
	"backend/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type CreateUserRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Role     string `json:"role" binding:"required"`
}

type UpdateUserRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email" binding:"omitempty,email"`
	Password string `json:"password" binding:"omitempty,min=6"`
	Role     string `json:"role"`
	Active   *bool  `json:"active"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type TokenResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

type UserResponse struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Email     string  `json:"email"`
	Role      string  `json:"role"`
	Active    bool    `json:"active"`
	LastLogin *string `json:"last_login"`
	CreatedAt string  `json:"created_at"`
}

// UserService manages staff accounts and issues their tokens.
type UserService interface {
	CreateUser(ctx context.Context, req CreateUserRequest) (UserResponse, error)
	Login(ctx context.Context, req LoginRequest) (TokenResponse, error)
	GetUser(ctx context.Context, actorID, id string) (UserResponse, error)
	ListUsers(ctx context.Context, page, limit int) ([]UserResponse, int64, error)
	UpdateUser(ctx context.Context, actorID, id string, req UpdateUserRequest) (UserResponse, error)
	VerifyAdmin(ctx context.Context, actorID string) error
}

type userService struct {
	repo repository.UserRepository
}

func NewUserService(repo repository.UserRepository) UserService {
	return &userService{repo: repo}
}

func validRole(role string) bool {
	return role == model.RoleAdmin || role == model.RoleRegular || role == model.RoleReadOnly
}

func toUserResponse(user *model.User) UserResponse {
	return UserResponse{
		ID:        user.ID.String(),
		Name:      user.Name,
		Email:     user.Email,
		Role:      user.Role,
		Active:    user.Active,
		LastLogin: optTime(user.LastLogin),
		CreatedAt: user.CreatedAt.Format(time.RFC3339),
	}
}

func jwtSecret() []byte {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "default_super_secret_key" // Development fallback only
	}
	return []byte(secret)
}

func (s *userService) CreateUser(ctx context.Context, req CreateUserRequest) (UserResponse, error) {
	if !validRole(req.Role) {
		return UserResponse{}, apperr.InvalidInput("role must be admin, usuario or visualizacao")
	}

	if _, err := s.repo.FindByEmail(ctx, req.Email); err == nil {
		return UserResponse{}, apperr.Conflict("email already registered")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return UserResponse{}, apperr.Internal("failed to hash password", err)
	}

	user := &model.User{
		Name:     req.Name,
		Email:    req.Email,
		Password: string(hashed),
		Role:     req.Role,
		Active:   true,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return UserResponse{}, apperr.Internal("failed to create user", err)
	}

	return toUserResponse(user), nil
}

func (s *userService) Login(ctx context.Context, req LoginRequest) (TokenResponse, error) {
	user, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil {
		return TokenResponse{}, apperr.PermissionDenied("invalid email or password")
	}

	if !user.Active {
		return TokenResponse{}, apperr.PermissionDenied("account is deactivated")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return TokenResponse{}, apperr.PermissionDenied("invalid email or password")
	}

	now := time.Now().UTC()
	user.LastLogin = &now
	if err := s.repo.Update(ctx, user); err != nil {
		return TokenResponse{}, apperr.Internal("failed to stamp login", err)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  user.ID.String(),
		"role": user.Role,
		"exp":  now.Add(24 * time.Hour).Unix(),
	})
	signed, err := token.SignedString(jwtSecret())
	if err != nil {
		return TokenResponse{}, apperr.Internal("failed to sign token", err)
	}

	return TokenResponse{Token: signed, User: toUserResponse(user)}, nil
}

// GetUser returns the account; non-admins can only read themselves.
func (s *userService) GetUser(ctx context.Context, actorID, id string) (UserResponse, error) {
	userID, err := uuid.Parse(id)
	if err != nil {
		return UserResponse{}, apperr.InvalidInput("invalid user id")
	}

	if actorID != id {
		if err := s.VerifyAdmin(ctx, actorID); err != nil {
			return UserResponse{}, err
		}
	}

	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return UserResponse{}, apperr.NotFound("user not found")
		}
		return UserResponse{}, apperr.Internal("failed to load user", err)
	}

	return toUserResponse(user), nil
}

func (s *userService) ListUsers(ctx context.Context, page, limit int) ([]UserResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	users, total, err := s.repo.List(ctx, page, limit)
	if err != nil {
		return nil, 0, apperr.Internal("failed to list users", err)
	}

	res := make([]UserResponse, 0, len(users))
	for i := range users {
		res = append(res, toUserResponse(&users[i]))
	}
	return res, total, nil
}

func (s *userService) UpdateUser(ctx context.Context, actorID, id string, req UpdateUserRequest) (UserResponse, error) {
	userID, err := uuid.Parse(id)
	if err != nil {
		return UserResponse{}, apperr.InvalidInput("invalid user id")
	}

	self := actorID == id
	if !self {
		if err := s.VerifyAdmin(ctx, actorID); err != nil {
			return UserResponse{}, err
		}
	}

	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return UserResponse{}, apperr.NotFound("user not found")
		}
		return UserResponse{}, apperr.Internal("failed to load user", err)
	}

	if req.Name != "" {
		user.Name = req.Name
	}
	if req.Email != "" && req.Email != user.Email {
		if _, findErr := s.repo.FindByEmail(ctx, req.Email); findErr == nil {
			return UserResponse{}, apperr.Conflict("email already registered")
		}
		user.Email = req.Email
	}
	if req.Password != "" {
		hashed, hashErr := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if hashErr != nil {
			return UserResponse{}, apperr.Internal("failed to hash password", hashErr)
		}
		user.Password = string(hashed)
	}
	if req.Role != "" && req.Role != user.Role {
		if self {
			return UserResponse{}, apperr.PermissionDenied("cannot change your own role")
		}
		if !validRole(req.Role) {
			return UserResponse{}, apperr.InvalidInput("role must be admin, usuario or visualizacao")
		}
		user.Role = req.Role
	}
	if req.Active != nil {
		if self && !*req.Active {
			return UserResponse{}, apperr.PermissionDenied("cannot deactivate your own account")
		}
		user.Active = *req.Active
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return UserResponse{}, apperr.Internal("failed to update user", err)
	}

	return toUserResponse(user), nil
}

// VerifyAdmin checks that the actor exists, is active and holds the admin
// role.
func (s *userService) VerifyAdmin(ctx context.Context, actorID string) error {
	id, err := uuid.Parse(actorID)
	if err != nil {
		return apperr.PermissionDenied("admin access required")
	}

	actor, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return apperr.PermissionDenied("admin access required")
	}

	if !actor.Active || !actor.IsAdmin() {
		return apperr.PermissionDenied("admin access required")
	}
	return nil
}
