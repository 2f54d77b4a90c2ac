package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/rentledger/payment-engine/internal/domain"
)

// The tables read here are owned by the surrounding CRUD services.

type beneficiaryRepository struct {
	ext sqlx.ExtContext
}

func (r *beneficiaryRepository) ListActiveByProperty(ctx context.Context, companyID, propertyID string) ([]*domain.Beneficiary, error) {
	query := r.ext.Rebind(`
		SELECT id, company_id, property_id, name, email, commission_type, commission_value, is_active
		FROM beneficiaries
		WHERE company_id = ? AND property_id = ? AND is_active = TRUE
		ORDER BY id
	`)

	beneficiaries := []*domain.Beneficiary{}
	if err := sqlx.SelectContext(ctx, r.ext, &beneficiaries, query, companyID, propertyID); err != nil {
		return nil, fmt.Errorf("list beneficiaries: %w", err)
	}
	return beneficiaries, nil
}

func (r *beneficiaryRepository) GetByID(ctx context.Context, companyID, id string) (*domain.Beneficiary, error) {
	query := r.ext.Rebind(`
		SELECT id, company_id, property_id, name, email, commission_type, commission_value, is_active
		FROM beneficiaries
		WHERE company_id = ? AND id = ?
	`)

	var beneficiary domain.Beneficiary
	if err := sqlx.GetContext(ctx, r.ext, &beneficiary, query, companyID, id); err != nil {
		return nil, notFound(err)
	}
	return &beneficiary, nil
}

type feeRepository struct {
	ext sqlx.ExtContext
}

func (r *feeRepository) ActiveLateFeeRule(ctx context.Context, companyID string) (*domain.LateFeeRule, error) {
	query := r.ext.Rebind(`
		SELECT id, company_id, name, grace_period_days, fixed_amount, percentage, is_active
		FROM late_fee_rules
		WHERE company_id = ? AND is_active = TRUE
		ORDER BY id
		LIMIT 1
	`)

	var rule domain.LateFeeRule
	if err := sqlx.GetContext(ctx, r.ext, &rule, query, companyID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get late fee rule: %w", err)
	}
	return &rule, nil
}

func (r *feeRepository) PaymentMethod(ctx context.Context, companyID, id string) (*domain.PaymentMethod, error) {
	query := r.ext.Rebind(`
		SELECT id, company_id, name, processing_fee_fixed, processing_fee_percentage, is_active
		FROM payment_methods
		WHERE company_id = ? AND id = ?
	`)

	var method domain.PaymentMethod
	if err := sqlx.GetContext(ctx, r.ext, &method, query, companyID, id); err != nil {
		return nil, notFound(err)
	}
	return &method, nil
}

type directoryRepository struct {
	ext sqlx.ExtContext
}

func (r *directoryRepository) GetProperty(ctx context.Context, companyID, id string) (*domain.Property, error) {
	query := r.ext.Rebind(`SELECT id, company_id, name, owner_name, email FROM properties WHERE company_id = ? AND id = ?`)

	var property domain.Property
	if err := sqlx.GetContext(ctx, r.ext, &property, query, companyID, id); err != nil {
		return nil, notFound(err)
	}
	return &property, nil
}

func (r *directoryRepository) GetTenant(ctx context.Context, companyID, id string) (*domain.Tenant, error) {
	query := r.ext.Rebind(`SELECT id, company_id, name, email FROM tenants WHERE company_id = ? AND id = ?`)

	var tenant domain.Tenant
	if err := sqlx.GetContext(ctx, r.ext, &tenant, query, companyID, id); err != nil {
		return nil, notFound(err)
	}
	return &tenant, nil
}
