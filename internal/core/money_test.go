package core

import "testing"

func TestParseDecimalToCents(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int64
		wantErr bool
	}{
		{name: "plain decimal", input: "12.34", want: 1234},
		{name: "comma separator", input: "12,34", want: 1234},
		{name: "integer", input: "7", want: 700},
		{name: "single fractional digit", input: "4.5", want: 450},
		{name: "third decimal rounds down", input: "12.344", want: 1234},
		{name: "third decimal rounds half up", input: "12.345", want: 1235},
		{name: "third decimal rounds up", input: "12.346", want: 1235},
		{name: "leading dot", input: ".99", want: 99},
		{name: "zero parses", input: "0", want: 0},
		{name: "negative rejected", input: "-1.00", wantErr: true},
		{name: "explicit plus rejected", input: "+1.00", wantErr: true},
		{name: "empty rejected", input: "", wantErr: true},
		{name: "garbage rejected", input: "12.3a", wantErr: true},
		{name: "double separator rejected", input: "1.2.3", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDecimalToCents(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseDecimalToCents(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err == nil && got != tt.want {
				t.Errorf("ParseDecimalToCents(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestMoneyString(t *testing.T) {
	tests := []struct {
		cents int64
		want  string
	}{
		{cents: 1234, want: "12.34"},
		{cents: 450, want: "4.50"},
		{cents: 5, want: "0.05"},
		{cents: 0, want: "0.00"},
		{cents: -199, want: "-1.99"},
	}

	for _, tt := range tests {
		if got := (Money{Cents: tt.cents}).String(); got != tt.want {
			t.Errorf("Money{%d}.String() = %q, want %q", tt.cents, got, tt.want)
		}
	}
}

func TestMoneyJSONRoundTrip(t *testing.T) {
	m := Money{Cents: 450}
	b, err := m.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON: %v", err)
	}
	if string(b) != "4.50" {
		t.Errorf("MarshalJSON = %s, want 4.50", b)
	}

	var parsed Money
	if err := parsed.UnmarshalJSON([]byte(`"4.50"`)); err != nil {
		t.Fatalf("UnmarshalJSON string: %v", err)
	}
	if parsed.Cents != 450 {
		t.Errorf("UnmarshalJSON string = %d cents, want 450", parsed.Cents)
	}

	parsed = Money{}
	if err := parsed.UnmarshalJSON([]byte(`4.5`)); err != nil {
		t.Fatalf("UnmarshalJSON number: %v", err)
	}
	if parsed.Cents != 450 {
		t.Errorf("UnmarshalJSON number = %d cents, want 450", parsed.Cents)
	}
}
