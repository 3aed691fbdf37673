package model

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestRawRecord_GenerateHash(t *testing.T) {
	base := RawRecord{
		Date:        time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC),
		Amount:      decimal.RequireFromString("-50.00"),
		Description: "Payment",
	}

	tests := []struct {
		name     string
		rec1     RawRecord
		rec2     RawRecord
		wantSame bool
	}{
		{
			name:     "identical records have same hash",
			rec1:     base,
			rec2:     base,
			wantSame: true,
		},
		{
			name: "description normalization ignores case and spacing",
			rec1: base,
			rec2: RawRecord{
				Date:        base.Date,
				Amount:      base.Amount,
				Description: "  PAYMENT  ",
			},
			wantSame: true,
		},
		{
			name: "time of day does not affect the hash",
			rec1: base,
			rec2: RawRecord{
				Date:        time.Date(2026, 1, 15, 17, 30, 0, 0, time.UTC),
				Amount:      base.Amount,
				Description: base.Description,
			},
			wantSame: true,
		},
		{
			name: "different amounts produce different hashes",
			rec1: base,
			rec2: RawRecord{
				Date:        base.Date,
				Amount:      decimal.RequireFromString("-50.01"),
				Description: base.Description,
			},
			wantSame: false,
		},
		{
			name: "different dates produce different hashes",
			rec1: base,
			rec2: RawRecord{
				Date:        base.Date.AddDate(0, 0, 1),
				Amount:      base.Amount,
				Description: base.Description,
			},
			wantSame: false,
		},
		{
			name: "sign matters",
			rec1: base,
			rec2: RawRecord{
				Date:        base.Date,
				Amount:      decimal.RequireFromString("50.00"),
				Description: base.Description,
			},
			wantSame: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h1 := tt.rec1.GenerateHash()
			h2 := tt.rec2.GenerateHash()
			if tt.wantSame {
				assert.Equal(t, h1, h2)
			} else {
				assert.NotEqual(t, h1, h2)
			}
			assert.Len(t, h1, 64)
		})
	}
}

func TestNormalizeDescription(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Payment", "PAYMENT"},
		{"  ACH   payment\tco ", "ACH PAYMENT CO"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeDescription(tt.in))
	}
}
