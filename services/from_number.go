package services

import (
	"context"
	"errors"
	"fmt"

	"groscales/repository"
)

// FromNumberResolver picks the sending number: the owner's default, then
// the configured fallback.
type FromNumberResolver struct {
	numbers  repository.PhoneNumberRepository
	fallback string
}

func NewFromNumberResolver(numbers repository.PhoneNumberRepository, fallback string) *FromNumberResolver {
	return &FromNumberResolver{numbers: numbers, fallback: fallback}
}

func (r *FromNumberResolver) Resolve(ctx context.Context, ownerID uint) (string, error) {
	pn, err := r.numbers.DefaultForOwner(ctx, ownerID)
	switch {
	case err == nil && pn.Number != "":
		return pn.Number, nil
	case err != nil && !errors.Is(err, repository.ErrNotFound):
		return "", fmt.Errorf("load default number: %w", err)
	}
	if r.fallback != "" {
		return r.fallback, nil
	}
	return "", ErrNoFromNumber
}
