package testutil

import (
	"testing"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/rentledger/payment-engine/internal/domain"
)

// Seed inserts the lookup rows the payment engine reads but does not own.
type Seed struct {
	t  *testing.T
	db *sqlx.DB
}

func NewSeed(t *testing.T, db *sqlx.DB) *Seed {
	return &Seed{t: t, db: db}
}

func (s *Seed) exec(query string, arg any) {
	s.t.Helper()
	if _, err := s.db.NamedExec(query, arg); err != nil {
		s.t.Fatalf("Failed to seed: %v", err)
	}
}

func (s *Seed) Property(companyID, email string) *domain.Property {
	s.t.Helper()
	p := &domain.Property{
		ID:        uuid.New().String(),
		CompanyID: companyID,
		Name:      "12 Harbour Road",
		OwnerName: "Owner",
		Email:     email,
	}
	s.exec(`INSERT INTO properties (id, company_id, name, owner_name, email)
		VALUES (:id, :company_id, :name, :owner_name, :email)`, p)
	return p
}

func (s *Seed) Tenant(companyID, email string) *domain.Tenant {
	s.t.Helper()
	tn := &domain.Tenant{
		ID:        uuid.New().String(),
		CompanyID: companyID,
		Name:      "Tenant",
		Email:     email,
	}
	s.exec(`INSERT INTO tenants (id, company_id, name, email)
		VALUES (:id, :company_id, :name, :email)`, tn)
	return tn
}

// Beneficiary inserts an active beneficiary. An empty id gets a random one.
func (s *Seed) Beneficiary(id string, property *domain.Property, kind domain.CommissionType, value string) *domain.Beneficiary {
	s.t.Helper()
	if id == "" {
		id = uuid.New().String()
	}
	b := &domain.Beneficiary{
		ID:              id,
		CompanyID:       property.CompanyID,
		PropertyID:      property.ID,
		Name:            "Beneficiary " + id,
		Email:           id + "@example.com",
		CommissionType:  kind,
		CommissionValue: decimal.RequireFromString(value),
		IsActive:        true,
	}
	s.exec(`INSERT INTO beneficiaries (id, company_id, property_id, name, email, commission_type, commission_value, is_active)
		VALUES (:id, :company_id, :property_id, :name, :email, :commission_type, :commission_value, :is_active)`, b)
	return b
}

func (s *Seed) LateFeeRule(companyID string, graceDays int, fixed, percentage string) *domain.LateFeeRule {
	s.t.Helper()
	r := &domain.LateFeeRule{
		ID:              uuid.New().String(),
		CompanyID:       companyID,
		Name:            "Standard late fee",
		GracePeriodDays: graceDays,
		FixedAmount:     decimal.RequireFromString(fixed),
		Percentage:      decimal.RequireFromString(percentage),
		IsActive:        true,
	}
	s.exec(`INSERT INTO late_fee_rules (id, company_id, name, grace_period_days, fixed_amount, percentage, is_active)
		VALUES (:id, :company_id, :name, :grace_period_days, :fixed_amount, :percentage, :is_active)`, r)
	return r
}

func (s *Seed) PaymentMethod(companyID string, fixed, percentage string) *domain.PaymentMethod {
	s.t.Helper()
	m := &domain.PaymentMethod{
		ID:                      uuid.New().String(),
		CompanyID:               companyID,
		Name:                    "Card",
		ProcessingFeeFixed:      decimal.RequireFromString(fixed),
		ProcessingFeePercentage: decimal.RequireFromString(percentage),
		IsActive:                true,
	}
	s.exec(`INSERT INTO payment_methods (id, company_id, name, processing_fee_fixed, processing_fee_percentage, is_active)
		VALUES (:id, :company_id, :name, :processing_fee_fixed, :processing_fee_percentage, :is_active)`, m)
	return m
}
