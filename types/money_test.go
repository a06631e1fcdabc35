package types_test

import (
	"encoding/json"
	"testing"

	"github.com/xraph/vitrine/types"
)

func TestUSD(t *testing.T) {
	m := types.USD(500)
	if m.Amount != 500 {
		t.Errorf("expected amount 500, got %d", m.Amount)
	}
	if m.Currency != "usd" {
		t.Errorf("expected currency usd, got %s", m.Currency)
	}
}

func TestAddSubtract(t *testing.T) {
	a := types.USD(500)
	b := types.USD(250)

	sum := a.Add(b)
	if sum.Amount != 750 {
		t.Errorf("expected 750, got %d", sum.Amount)
	}

	diff := a.Subtract(b)
	if diff.Amount != 250 {
		t.Errorf("expected 250, got %d", diff.Amount)
	}
}

func TestCurrencyMismatchPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic on currency mismatch")
		}
	}()
	types.USD(100).Add(types.Zero("eur"))
}

func TestPredicates(t *testing.T) {
	if !types.Zero("usd").IsZero() {
		t.Error("Zero should be zero")
	}
	if !types.USD(1).IsPositive() {
		t.Error("USD(1) should be positive")
	}
	if types.USD(-1).IsPositive() {
		t.Error("USD(-1) should not be positive")
	}
	if !types.USD(100).Equal(types.USD(100)) {
		t.Error("equal values should compare equal")
	}
	if types.USD(100).Equal(types.Zero("eur")) {
		t.Error("different currencies should not compare equal")
	}
	if !types.USD(99).LessThan(types.USD(100)) {
		t.Error("99 < 100")
	}
}

func TestFormatMajor(t *testing.T) {
	tests := []struct {
		in   types.Money
		want string
	}{
		{types.USD(500), "5.00"},
		{types.USD(12905), "129.05"},
		{types.USD(7), "0.07"},
		{types.USD(-500), "-5.00"},
		{types.Zero("usd"), "0.00"},
	}

	for _, tt := range tests {
		if got := tt.in.FormatMajor(); got != tt.want {
			t.Errorf("FormatMajor(%d) = %q, want %q", tt.in.Amount, got, tt.want)
		}
	}
}

func TestString(t *testing.T) {
	if got := types.USD(500).String(); got != "$5.00" {
		t.Errorf("expected $5.00, got %q", got)
	}
}

func TestMarshalJSON(t *testing.T) {
	data, err := json.Marshal(types.USD(500))
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var decoded struct {
		Amount   int64  `json:"amount"`
		Currency string `json:"currency"`
		Display  string `json:"display"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if decoded.Amount != 500 || decoded.Currency != "usd" || decoded.Display != "$5.00" {
		t.Errorf("unexpected JSON payload: %+v", decoded)
	}
}
