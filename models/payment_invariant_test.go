package models

import (
	"errors"
	"testing"

	"bitbucket.org/mmdatafocus/studio_backend/utils"
	"github.com/shopspring/decimal"
)

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal %q: %v", s, err)
	}
	return d
}

func TestValidatePaymentTotals(t *testing.T) {
	cases := []struct {
		name        string
		packageCost string
		received    []string
		scheduled   []string
		wantErr     bool
	}{
		{"empty payments", "100000", nil, nil, false},
		{"under cost", "100000", []string{"40000"}, []string{"50000"}, false},
		{"exactly equal passes", "100000", []string{"40000"}, []string{"60000"}, false},
		{"one cent over fails", "60000", []string{"60000.01"}, nil, true},
		{"sum over fails", "100000", []string{"40000", "30000"}, []string{"40000"}, true},
		{"zero cost with payment fails", "0", []string{"1"}, nil, true},
		{"zero cost no payments passes", "0", nil, nil, false},
		{"fractional amounts sum exactly", "100.30", []string{"0.10", "0.20"}, []string{"100.00"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			received := make([]decimal.Decimal, 0, len(tc.received))
			for _, s := range tc.received {
				received = append(received, dec(t, s))
			}
			scheduled := make([]decimal.Decimal, 0, len(tc.scheduled))
			for _, s := range tc.scheduled {
				scheduled = append(scheduled, dec(t, s))
			}
			err := validatePaymentTotals(dec(t, tc.packageCost), received, scheduled)
			if tc.wantErr {
				if !errors.Is(err, utils.ErrorPaymentsExceedPackageCost) {
					t.Fatalf("expected ErrorPaymentsExceedPackageCost, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestValidateCostReduction(t *testing.T) {
	cases := []struct {
		name      string
		newCost   string
		committed string
		wantErr   bool
	}{
		{"reduction above committed passes", "95000", "90000", false},
		{"reduction to committed passes", "90000", "90000", false},
		{"reduction below committed fails", "80000", "90000", true},
		{"no committed payments passes", "1", "0", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := validateCostReduction(dec(t, tc.newCost), dec(t, tc.committed))
			if tc.wantErr {
				if !errors.Is(err, utils.ErrorCostBelowCommittedPayments) {
					t.Fatalf("expected ErrorCostBelowCommittedPayments, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}
