package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/rentledger/payment-engine/internal/clock"
	"github.com/rentledger/payment-engine/internal/repository"
)

const defaultReferenceAttempts = 10

// ReferenceGenerator builds human readable references of the form
// PREFIX-YYYYMMDD-XXXXXX, where the suffix is six uppercase hex characters.
type ReferenceGenerator struct {
	clock       clock.Clock
	maxAttempts int
	suffix      func() string
}

func NewReferenceGenerator(clk clock.Clock, maxAttempts int) *ReferenceGenerator {
	if maxAttempts <= 0 {
		maxAttempts = defaultReferenceAttempts
	}
	return &ReferenceGenerator{
		clock:       clk,
		maxAttempts: maxAttempts,
		suffix:      randomSuffix,
	}
}

func randomSuffix() string {
	id := uuid.New()
	return strings.ToUpper(fmt.Sprintf("%x", id[:3]))
}

// ExistsFunc reports whether a reference is already taken.
type ExistsFunc func(ctx context.Context, reference string) (bool, error)

// Generate returns a reference that exists does not report as taken.
func (g *ReferenceGenerator) Generate(ctx context.Context, prefix string, exists ExistsFunc) (string, error) {
	date := g.clock.Now().UTC().Format("20060102")

	for attempt := 0; attempt < g.maxAttempts; attempt++ {
		reference := fmt.Sprintf("%s-%s-%s", prefix, date, g.suffix())

		taken, err := exists(ctx, reference)
		if err != nil {
			return "", err
		}
		if !taken {
			return reference, nil
		}
	}
	return "", fmt.Errorf("no free %s reference after %d attempts", prefix, g.maxAttempts)
}

// Assign generates a reference and passes it to insert. When the insert
// loses a race on the storage unique constraint a new reference is tried.
func (g *ReferenceGenerator) Assign(ctx context.Context, prefix string, exists ExistsFunc, insert func(reference string) error) (string, error) {
	for attempt := 0; attempt < g.maxAttempts; attempt++ {
		reference, err := g.Generate(ctx, prefix, exists)
		if err != nil {
			return "", err
		}

		err = insert(reference)
		if errors.Is(err, repository.ErrDuplicate) {
			continue
		}
		if err != nil {
			return "", err
		}
		return reference, nil
	}
	return "", fmt.Errorf("no unique %s reference after %d inserts", prefix, g.maxAttempts)
}
