package core

import (
	"testing"
)

func TestSignal_Constants(t *testing.T) {
	signals := []Signal{SignalBuy, SignalSell, SignalHold}
	expected := []string{"BUY", "SELL", "HOLD"}

	for i, s := range signals {
		if string(s) != expected[i] {
			t.Errorf("expected %s, got %s", expected[i], s)
		}
	}
}

func TestSignal_IsValid(t *testing.T) {
	tests := []struct {
		name string
		s    Signal
		want bool
	}{
		{"buy", SignalBuy, true},
		{"sell", SignalSell, true},
		{"hold", SignalHold, true},
		{"empty", "", false},
		{"lowercase", "buy", false},
		{"strong buy", "STRONG_BUY", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.s.IsValid(); got != tt.want {
				t.Errorf("IsValid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseSignal(t *testing.T) {
	tests := []struct {
		in      string
		want    Signal
		wantErr bool
	}{
		{"BUY", SignalBuy, false},
		{"sell", SignalSell, false},
		{" Hold ", SignalHold, false},
		{"wait", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSignal(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseSignal(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseSignal(%q) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}
