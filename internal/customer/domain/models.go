package domain

import (
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/facturapro/facturapro/pkg/db/pagination"
	"gorm.io/datatypes"
)

// ContactPerson is the optional named contact at the customer.
type ContactPerson struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type Customer struct {
	ID             snowflake.ID                      `gorm:"primaryKey" json:"id"`
	NIF            string                            `gorm:"column:nif;not null;index" json:"nif"`
	Name           string                            `gorm:"not null;index" json:"name"`
	Address        string                            `json:"address"`
	Email          string                            `json:"email"`
	Phone          string                            `json:"phone"`
	Currency       string                            `json:"currency,omitempty"`
	Notes          string                            `gorm:"type:text" json:"notes,omitempty"`
	Contact        datatypes.JSONType[ContactPerson] `gorm:"column:contact_person" json:"contactPerson"`
	DefaultVATRate float64                           `gorm:"column:default_vat_rate" json:"defaultVatRate,omitempty"`
	CreatedAt      time.Time                         `gorm:"not null" json:"createdAt"`
	UpdatedAt      time.Time                         `gorm:"not null" json:"updatedAt"`
}

// TableName sets the database table name.
func (Customer) TableName() string { return "customers" }

type CreateCustomerRequest struct {
	NIF            string        `json:"nif"`
	Name           string        `json:"name"`
	Address        string        `json:"address"`
	Email          string        `json:"email"`
	Phone          string        `json:"phone"`
	Currency       string        `json:"currency"`
	Notes          string        `json:"notes"`
	Contact        ContactPerson `json:"contactPerson"`
	DefaultVATRate float64       `json:"defaultVatRate"`
}

type UpdateCustomerRequest struct {
	CreateCustomerRequest
}

type ListCustomerRequest struct {
	pagination.Pagination
	Name string `form:"name"`
	NIF  string `form:"nif"`
}

type ListCustomerResponse struct {
	pagination.PageInfo
	Customers []Customer `json:"customers"`
}

var (
	ErrNotFound         = errors.New("customer: not found")
	ErrInvalidName      = errors.New("customer: name is required")
	ErrInvalidNIF       = errors.New("customer: nif is required")
	ErrInvalidEmail     = errors.New("customer: invalid email")
	ErrInvalidCurrency  = errors.New("customer: unsupported currency")
	ErrInvalidPageToken = errors.New("customer: invalid page token")
)
