package service

import (
	"context"
	"errors"
	"time"

	"backend/internal/apperr"
	"backend/internal/model"
	"backend/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type RegisterCustomerRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	ZipCode  string `json:"zip_code"`
	City     string `json:"city"`
	Country  string `json:"country"`
}

type UpdateCustomerRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email" binding:"omitempty,email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	ZipCode string `json:"zip_code"`
	City    string `json:"city"`
	Country string `json:"country"`
}

type CustomerResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
	ZipCode   string `json:"zip_code"`
	City      string `json:"city"`
	Country   string `json:"country"`
	CreatedAt string `json:"created_at"`
}

type CustomerTokenResponse struct {
	Token    string           `json:"token"`
	Customer CustomerResponse `json:"customer"`
}

// CustomerService manages storefront accounts. Registration and login are
// public; the rest of the operations are staff-only.
type CustomerService interface {
	Register(ctx context.Context, req RegisterCustomerRequest) (CustomerResponse, error)
	Login(ctx context.Context, req LoginRequest) (CustomerTokenResponse, error)
	GetCustomer(ctx context.Context, id string) (CustomerResponse, error)
	ListCustomers(ctx context.Context, page, limit int, search string) ([]CustomerResponse, int64, error)
	UpdateCustomer(ctx context.Context, id string, req UpdateCustomerRequest) (CustomerResponse, error)
	DeleteCustomer(ctx context.Context, id string) error
}

type customerService struct {
	repo repository.CustomerRepository
}

func NewCustomerService(repo repository.CustomerRepository) CustomerService {
	return &customerService{repo: repo}
}

func toCustomerResponse(c *model.Customer) CustomerResponse {
	return CustomerResponse{
		ID:        c.ID.String(),
		Name:      c.Name,
		Email:     c.Email,
		Phone:     c.Phone,
		Address:   c.Address,
		ZipCode:   c.ZipCode,
		City:      c.City,
		Country:   c.Country,
		CreatedAt: c.CreatedAt.Format(time.RFC3339),
	}
}

func (s *customerService) Register(ctx context.Context, req RegisterCustomerRequest) (CustomerResponse, error) {
	if _, err := s.repo.FindByEmail(ctx, req.Email); err == nil {
		return CustomerResponse{}, apperr.Conflict("email already registered")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return CustomerResponse{}, apperr.Internal("failed to hash password", err)
	}

	customer := &model.Customer{
		Name:     req.Name,
		Email:    req.Email,
		Password: string(hashed),
		Phone:    req.Phone,
		Address:  req.Address,
		ZipCode:  req.ZipCode,
		City:     req.City,
		Country:  req.Country,
	}
	if err := s.repo.Create(ctx, customer); err != nil {
		return CustomerResponse{}, apperr.Internal("failed to create customer", err)
	}

	return toCustomerResponse(customer), nil
}

// Login issues a customer token. The tipo claim separates customer tokens
// from staff tokens, so one can never be used where the other is expected.
func (s *customerService) Login(ctx context.Context, req LoginRequest) (CustomerTokenResponse, error) {
	customer, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil {
		return CustomerTokenResponse{}, apperr.PermissionDenied("invalid email or password")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(customer.Password), []byte(req.Password)); err != nil {
		return CustomerTokenResponse{}, apperr.PermissionDenied("invalid email or password")
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  customer.ID.String(),
		"tipo": "cliente",
		"exp":  time.Now().UTC().Add(24 * time.Hour).Unix(),
	})
	signed, err := token.SignedString(jwtSecret())
	if err != nil {
		return CustomerTokenResponse{}, apperr.Internal("failed to sign token", err)
	}

	return CustomerTokenResponse{Token: signed, Customer: toCustomerResponse(customer)}, nil
}

func (s *customerService) GetCustomer(ctx context.Context, id string) (CustomerResponse, error) {
	customerID, err := uuid.Parse(id)
	if err != nil {
		return CustomerResponse{}, apperr.InvalidInput("invalid customer id")
	}

	customer, err := s.repo.FindByID(ctx, customerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return CustomerResponse{}, apperr.NotFound("customer not found")
		}
		return CustomerResponse{}, apperr.Internal("failed to load customer", err)
	}

	return toCustomerResponse(customer), nil
}

func (s *customerService) ListCustomers(ctx context.Context, page, limit int, search string) ([]CustomerResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	customers, total, err := s.repo.List(ctx, page, limit, search)
	if err != nil {
		return nil, 0, apperr.Internal("failed to list customers", err)
	}

	res := make([]CustomerResponse, 0, len(customers))
	for i := range customers {
		res = append(res, toCustomerResponse(&customers[i]))
	}
	return res, total, nil
}

func (s *customerService) UpdateCustomer(ctx context.Context, id string, req UpdateCustomerRequest) (CustomerResponse, error) {
	customerID, err := uuid.Parse(id)
	if err != nil {
		return CustomerResponse{}, apperr.InvalidInput("invalid customer id")
	}

	customer, err := s.repo.FindByID(ctx, customerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return CustomerResponse{}, apperr.NotFound("customer not found")
		}
		return CustomerResponse{}, apperr.Internal("failed to load customer", err)
	}

	if req.Email != "" && req.Email != customer.Email {
		if _, findErr := s.repo.FindByEmail(ctx, req.Email); findErr == nil {
			return CustomerResponse{}, apperr.Conflict("email already registered")
		}
		customer.Email = req.Email
	}
	if req.Name != "" {
		customer.Name = req.Name
	}
	if req.Phone != "" {
		customer.Phone = req.Phone
	}
	if req.Address != "" {
		customer.Address = req.Address
	}
	if req.ZipCode != "" {
		customer.ZipCode = req.ZipCode
	}
	if req.City != "" {
		customer.City = req.City
	}
	if req.Country != "" {
		customer.Country = req.Country
	}

	if err := s.repo.Update(ctx, customer); err != nil {
		return CustomerResponse{}, apperr.Internal("failed to update customer", err)
	}

	return toCustomerResponse(customer), nil
}

// DeleteCustomer refuses while purchases reference the customer so order
// history stays resolvable.
func (s *customerService) DeleteCustomer(ctx context.Context, id string) error {
	customerID, err := uuid.Parse(id)
	if err != nil {
		return apperr.InvalidInput("invalid customer id")
	}

	if _, err := s.repo.FindByID(ctx, customerID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("customer not found")
		}
		return apperr.Internal("failed to load customer", err)
	}

	count, err := s.repo.CountPurchases(ctx, customerID)
	if err != nil {
		return apperr.Internal("failed to count purchases", err)
	}
	if count > 0 {
		return apperr.Conflict("customer has %d purchase(s) and cannot be deleted", count)
	}

	return s.repo.Delete(ctx, customerID)
}
