package pricing

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestPackageQuote(t *testing.T) {
	q := PackageQuote(decimal.NewFromInt(1000))

	if !q.MentorPayout.Equal(decimal.NewFromInt(3000)) {
		t.Fatalf("expected payout 3000, got %s", q.MentorPayout)
	}
	if !q.PlatformFee.Equal(decimal.NewFromInt(3000)) {
		t.Fatalf("expected fee 3000, got %s", q.PlatformFee)
	}
	if !q.TotalAmount.Equal(decimal.NewFromInt(6000)) {
		t.Fatalf("expected total 6000, got %s", q.TotalAmount)
	}
}

func TestPackageQuote_FractionalRate(t *testing.T) {
	q := PackageQuote(decimal.RequireFromString("499.50"))

	if !q.MentorPayout.Equal(decimal.RequireFromString("1498.50")) {
		t.Fatalf("expected payout 1498.50, got %s", q.MentorPayout)
	}
	if !q.TotalAmount.Equal(decimal.RequireFromString("2997.00")) {
		t.Fatalf("expected total 2997.00, got %s", q.TotalAmount)
	}
}

func TestPackageQuote_FeeEqualsPayout(t *testing.T) {
	for _, rate := range []int64{1, 750, 2500, 10000} {
		q := PackageQuote(decimal.NewFromInt(rate))
		if !q.PlatformFee.Equal(q.MentorPayout) {
			t.Fatalf("rate %d: fee %s != payout %s", rate, q.PlatformFee, q.MentorPayout)
		}
		if !q.TotalAmount.Equal(q.PlatformFee.Add(q.MentorPayout)) {
			t.Fatalf("rate %d: total %s is not fee+payout", rate, q.TotalAmount)
		}
	}
}

func TestValidateRate(t *testing.T) {
	bounds := TierBounds{
		Tier:    TierSilver,
		MinRate: decimal.NewFromInt(500),
		MaxRate: decimal.NewFromInt(1500),
	}

	cases := []struct {
		name    string
		rate    int64
		wantErr bool
	}{
		{"at min", 500, false},
		{"inside", 1000, false},
		{"at max", 1500, false},
		{"below", 499, true},
		{"above", 1501, true},
	}

	for _, tc := range cases {
		err := ValidateRate(bounds, decimal.NewFromInt(tc.rate))
		if tc.wantErr {
			if !errors.Is(err, ErrRateOutOfTierRange) {
				t.Fatalf("%s: expected ErrRateOutOfTierRange, got %v", tc.name, err)
			}
			var re *RateError
			if !errors.As(err, &re) {
				t.Fatalf("%s: expected RateError carrying bounds", tc.name)
			}
			if re.Bounds.Tier != TierSilver {
				t.Fatalf("%s: error lost tier bounds", tc.name)
			}
		} else if err != nil {
			t.Fatalf("%s: unexpected error %v", tc.name, err)
		}
	}
}
