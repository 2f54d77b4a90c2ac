package domain

import (
	"github.com/shopspring/decimal"
)

type CommissionType string

const (
	CommissionTypePercentage CommissionType = "percentage"
	CommissionTypeFixed      CommissionType = "fixed"
)

// Beneficiary is a third party (agent, manager, co-owner) entitled to a
// share of every payment on a property.
type Beneficiary struct {
	ID              string          `json:"id" db:"id"`
	CompanyID       string          `json:"company_id" db:"company_id"`
	PropertyID      string          `json:"property_id" db:"property_id"`
	Name            string          `json:"name" db:"name"`
	Email           string          `json:"email" db:"email"`
	CommissionType  CommissionType  `json:"commission_type" db:"commission_type"`
	CommissionValue decimal.Decimal `json:"commission_value" db:"commission_value"`
	IsActive        bool            `json:"is_active" db:"is_active"`
}

// Property and Tenant are read-only lookups owned by the surrounding CRUD services.
type Property struct {
	ID        string `json:"id" db:"id"`
	CompanyID string `json:"company_id" db:"company_id"`
	Name      string `json:"name" db:"name"`
	OwnerName string `json:"owner_name" db:"owner_name"`
	Email     string `json:"email" db:"email"`
}

type Tenant struct {
	ID        string `json:"id" db:"id"`
	CompanyID string `json:"company_id" db:"company_id"`
	Name      string `json:"name" db:"name"`
	Email     string `json:"email" db:"email"`
}
