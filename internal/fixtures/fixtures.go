// Package fixtures generates identity-API response fixtures for tests and
// local development. The peripheral dashboard screens consume list endpoints
// this gateway does not own; their stand-in data lives here, never in logic.
package fixtures

import (
	"github.com/brianvoe/gofakeit/v7"

	"tripdesk/internal/identity"
	"tripdesk/internal/model"
)

// NewFaker returns a seeded faker so fixture runs are reproducible.
func NewFaker(seed uint64) *gofakeit.Faker {
	return gofakeit.New(seed)
}

// UserProfile builds a plausible identity-API profile.
func UserProfile(f *gofakeit.Faker) *model.UserProfile {
	return &model.UserProfile{
		ID:            int64(f.Number(1, 99999)),
		Username:      f.Username(),
		Email:         f.Email(),
		FirstName:     f.FirstName(),
		LastName:      f.LastName(),
		Role:          f.RandomString([]string{"admin", "editor", "support"}),
		Status:        "active",
		EmailVerified: f.Bool(),
	}
}

// AuthResult builds a successful login/register response body.
func AuthResult(f *gofakeit.Faker) *identity.AuthResult {
	return &identity.AuthResult{
		AccessToken:  f.LetterN(48),
		RefreshToken: f.LetterN(64),
		User:         UserProfile(f),
	}
}
