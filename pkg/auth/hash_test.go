package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/bcrypt"
)

func TestHash(t *testing.T) {
	hashService := &HashService{Cost: bcrypt.MinCost}

	tests := []struct {
		name        string
		secret      string
		expectError bool
	}{
		{
			name:        "Valid PIN",
			secret:      "482913",
			expectError: false,
		},
		{
			name:        "Empty PIN",
			secret:      "",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hashed, err := hashService.Hash(tt.secret)

			if tt.expectError {
				assert.Error(t, err)
				assert.Empty(t, hashed)
			} else {
				assert.NoError(t, err)
				assert.NotEmpty(t, hashed)
				assert.NotEqual(t, tt.secret, hashed)
			}
		})
	}
}

func TestCompare(t *testing.T) {
	hashService := &HashService{Cost: bcrypt.MinCost}

	tests := []struct {
		name        string
		secret      string
		hashed      string
		setup       func() string
		expectMatch bool
	}{
		{
			name:   "Matching PIN",
			secret: "482913",
			setup: func() string {
				hashed, _ := hashService.Hash("482913")
				return hashed
			},
			expectMatch: true,
		},
		{
			name:   "Non-Matching PIN",
			secret: "000000",
			setup: func() string {
				hashed, _ := hashService.Hash("482913")
				return hashed
			},
			expectMatch: false,
		},
		{
			name:        "Garbage hash",
			secret:      "482913",
			hashed:      "not-a-hash",
			expectMatch: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hashed := tt.hashed
			if tt.setup != nil {
				hashed = tt.setup()
			}

			match := hashService.Compare(hashed, tt.secret)
			assert.Equal(t, tt.expectMatch, match)
		})
	}
}

func TestHash_DefaultCost(t *testing.T) {
	hashService := &HashService{}

	hashed, err := hashService.Hash("123456")
	assert.NoError(t, err)
	cost, err := bcrypt.Cost([]byte(hashed))
	assert.NoError(t, err)
	assert.Equal(t, bcrypt.DefaultCost, cost)
}
