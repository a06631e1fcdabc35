package id_test

import (
	"strings"
	"testing"

	"github.com/xraph/vitrine/id"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		name   string
		newFn  func() id.ID
		prefix string
	}{
		{"UserID", id.NewUserID, "user_"},
		{"ArtifactID", id.NewArtifactID, "art_"},
		{"PaymentID", id.NewPaymentID, "pay_"},
		{"SessionID", id.NewSessionID, "sess_"},
		{"TransactionID", id.NewTransactionID, "txn_"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.newFn().String()
			if !strings.HasPrefix(got, tt.prefix) {
				t.Errorf("expected prefix %q, got %q", tt.prefix, got)
			}
		})
	}
}

func TestNew(t *testing.T) {
	i := id.New(id.PrefixArtifact)
	if i.IsNil() {
		t.Fatal("expected non-nil ID")
	}
	if i.Prefix() != id.PrefixArtifact {
		t.Errorf("expected prefix %q, got %q", id.PrefixArtifact, i.Prefix())
	}
}

func TestParseRoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		newFn   func() id.ID
		parseFn func(string) (id.ID, error)
	}{
		{"UserID", id.NewUserID, id.ParseUserID},
		{"ArtifactID", id.NewArtifactID, id.ParseArtifactID},
		{"PaymentID", id.NewPaymentID, id.ParsePaymentID},
		{"SessionID", id.NewSessionID, id.ParseSessionID},
		{"TransactionID", id.NewTransactionID, id.ParseTransactionID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			original := tt.newFn()
			parsed, err := tt.parseFn(original.String())
			if err != nil {
				t.Fatalf("parse failed: %v", err)
			}
			if parsed.String() != original.String() {
				t.Errorf("round-trip mismatch: %q != %q", parsed.String(), original.String())
			}
		})
	}
}

func TestCrossTypeRejection(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		parseFn func(string) (id.ID, error)
	}{
		{"ParseUserID rejects art_", id.NewArtifactID().String(), id.ParseUserID},
		{"ParseArtifactID rejects pay_", id.NewPaymentID().String(), id.ParseArtifactID},
		{"ParsePaymentID rejects sess_", id.NewSessionID().String(), id.ParsePaymentID},
		{"ParseSessionID rejects txn_", id.NewTransactionID().String(), id.ParseSessionID},
		{"ParseTransactionID rejects user_", id.NewUserID().String(), id.ParseTransactionID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.parseFn(tt.input)
			if err == nil {
				t.Errorf("expected error for cross-type parse of %q, got nil", tt.input)
			}
		})
	}
}

func TestParseAny(t *testing.T) {
	ids := []id.ID{
		id.NewUserID(),
		id.NewArtifactID(),
		id.NewPaymentID(),
		id.NewSessionID(),
		id.NewTransactionID(),
	}

	for _, i := range ids {
		t.Run(i.String(), func(t *testing.T) {
			parsed, err := id.ParseAny(i.String())
			if err != nil {
				t.Fatalf("ParseAny(%q) failed: %v", i.String(), err)
			}
			if parsed.String() != i.String() {
				t.Errorf("round-trip mismatch: %q != %q", parsed.String(), i.String())
			}
		})
	}
}

func TestParseWithPrefix(t *testing.T) {
	i := id.NewArtifactID()
	parsed, err := id.ParseWithPrefix(i.String(), id.PrefixArtifact)
	if err != nil {
		t.Fatalf("ParseWithPrefix failed: %v", err)
	}
	if parsed.String() != i.String() {
		t.Errorf("mismatch: %q != %q", parsed.String(), i.String())
	}

	_, err = id.ParseWithPrefix(i.String(), id.PrefixUser)
	if err == nil {
		t.Error("expected error for wrong prefix")
	}
}

func TestParseEmpty(t *testing.T) {
	_, err := id.Parse("")
	if err == nil {
		t.Error("expected error for empty string")
	}
}

func TestNilID(t *testing.T) {
	var i id.ID
	if !i.IsNil() {
		t.Error("zero-value ID should be nil")
	}
	if i.String() != "" {
		t.Errorf("expected empty string, got %q", i.String())
	}
	if i.Prefix() != "" {
		t.Errorf("expected empty prefix, got %q", i.Prefix())
	}
}

func TestMarshalUnmarshalText(t *testing.T) {
	original := id.NewPaymentID()
	data, err := original.MarshalText()
	if err != nil {
		t.Fatalf("MarshalText failed: %v", err)
	}

	var restored id.ID
	if unmarshalErr := restored.UnmarshalText(data); unmarshalErr != nil {
		t.Fatalf("UnmarshalText failed: %v", unmarshalErr)
	}
	if restored.String() != original.String() {
		t.Errorf("mismatch: %q != %q", restored.String(), original.String())
	}

	// Nil round-trip.
	var nilID id.ID
	data, err = nilID.MarshalText()
	if err != nil {
		t.Fatalf("MarshalText(nil) failed: %v", err)
	}
	var restored2 id.ID
	if err := restored2.UnmarshalText(data); err != nil {
		t.Fatalf("UnmarshalText(nil) failed: %v", err)
	}
	if !restored2.IsNil() {
		t.Error("expected nil after round-trip of nil ID")
	}
}

func TestScanValue(t *testing.T) {
	original := id.NewUserID()

	v, err := original.Value()
	if err != nil {
		t.Fatalf("Value failed: %v", err)
	}

	var restored id.ID
	if err := restored.Scan(v); err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if restored.String() != original.String() {
		t.Errorf("mismatch: %q != %q", restored.String(), original.String())
	}

	// NULL round-trip.
	var nilID id.ID
	v, err = nilID.Value()
	if err != nil {
		t.Fatalf("Value(nil) failed: %v", err)
	}
	if v != nil {
		t.Errorf("expected nil driver value for Nil ID, got %v", v)
	}
	var restored2 id.ID
	if err := restored2.Scan(nil); err != nil {
		t.Fatalf("Scan(nil) failed: %v", err)
	}
	if !restored2.IsNil() {
		t.Error("expected nil after scanning NULL")
	}
}
