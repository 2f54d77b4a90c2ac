package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBusinessErrorClassification(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
		code     string
	}{
		{name: "validation", err: WrapValidation("amount must be greater than zero"), sentinel: ErrValidation, code: ErrCodeValidation},
		{name: "not found", err: WrapNotFound("Payment", "abc"), sentinel: ErrNotFound, code: ErrCodeNotFound},
		{name: "already allocated", err: WrapAlreadyAllocated("PAY-1"), sentinel: ErrAlreadyAllocated, code: ErrCodeAlreadyAllocated},
		{name: "already processed", err: WrapAlreadyProcessed("Payout", "PO-1", "processed"), sentinel: ErrAlreadyProcessed, code: ErrCodeAlreadyProcessed},
		{name: "configuration", err: WrapConfiguration("no active late fee rule"), sentinel: ErrConfiguration, code: ErrCodeConfiguration},
		{name: "database", err: WrapDatabaseError(errors.New("connection reset")), sentinel: ErrPersistence, code: ErrCodeDatabaseError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := fmt.Errorf("outer: %w", tt.err)
			assert.ErrorIs(t, wrapped, tt.sentinel)
			assert.Equal(t, tt.code, Code(wrapped))
		})
	}
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "Payment with ID abc not found", Message(WrapNotFound("Payment", "abc")))
	assert.Equal(t, "plain", Message(errors.New("plain")))
}

func TestLift(t *testing.T) {
	assert.Nil(t, Lift(nil))

	notFound := WrapNotFound("Payout", "x")
	assert.Same(t, notFound, Lift(notFound))

	lifted := Lift(errors.New("disk full"))
	assert.ErrorIs(t, lifted, ErrPersistence)
	assert.Contains(t, lifted.Error(), "disk full")
}
