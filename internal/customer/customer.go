package customer

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/ariefcatur/go-catalog-orders/internal/validation"
)

type Customer struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

var ErrNotFound = errors.New("customer not found")

type Store interface {
	InsertCustomer(ctx context.Context, c *Customer) error
	CustomerByID(ctx context.Context, id int64) (Customer, error)
}

type CreateRequest struct {
	Name  string `json:"name" validate:"required,max=255"`
	Email string `json:"email" validate:"required,email"`
	Phone string `json:"phone" validate:"required,phone"`
}

type Service struct {
	Store Store
}

func (s *Service) Create(ctx context.Context, req CreateRequest) (Customer, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	req.Phone = strings.TrimSpace(req.Phone)
	if err := validation.Struct("customer.Create", req); err != nil {
		return Customer{}, err
	}
	c := Customer{Name: req.Name, Email: req.Email, Phone: req.Phone}
	if err := s.Store.InsertCustomer(ctx, &c); err != nil {
		return Customer{}, err
	}
	return c, nil
}

func (s *Service) Get(ctx context.Context, id int64) (Customer, error) {
	return s.Store.CustomerByID(ctx, id)
}
