package validate

import (
	"testing"
)

func TestAddress(t *testing.T) {
	tests := []struct {
		name    string
		addr    string
		wantErr bool
	}{
		{"valid lowercase", "0xab5801a7d398351b8be11c439e05c5b3259aec9b", false},
		{"valid checksummed", "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48", false},
		{"empty", "", true},
		{"missing prefix", "ab5801a7d398351b8be11c439e05c5b3259aec9b00", true},
		{"too short", "0xab5801", true},
		{"too long", "0xab5801a7d398351b8be11c439e05c5b3259aec9b00", true},
		{"invalid hex chars", "0xzz5801a7d398351b8be11c439e05c5b3259aec9b", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Address(tt.addr)
			if (err != nil) != tt.wantErr {
				t.Errorf("Address(%q) error = %v, wantErr %v", tt.addr, err, tt.wantErr)
			}
		})
	}
}

func TestNormalizeAddress(t *testing.T) {
	got := NormalizeAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")
	want := "0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48"
	if got != want {
		t.Errorf("NormalizeAddress() = %q, want %q", got, want)
	}
}

func TestPositiveInt(t *testing.T) {
	if err := PositiveInt(5, 1); err != nil {
		t.Errorf("PositiveInt(5, 1) = %v, want nil", err)
	}
	if err := PositiveInt(0, 1); err == nil {
		t.Error("PositiveInt(0, 1) = nil, want error")
	}
	if err := PositiveInt(-3, 1); err == nil {
		t.Error("PositiveInt(-3, 1) = nil, want error")
	}
}

func TestAPIKey(t *testing.T) {
	if err := APIKey("Moralis", "abc123"); err != nil {
		t.Errorf("APIKey with key = %v, want nil", err)
	}
	err := APIKey("Moralis", "")
	if err == nil {
		t.Fatal("APIKey without key = nil, want error")
	}
	want := "Moralis API key is required but was not provided"
	if err.Error() != want {
		t.Errorf("APIKey error = %q, want %q", err.Error(), want)
	}
}
