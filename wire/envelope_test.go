package wire

import (
	"reflect"
	"testing"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	cases := []Envelope{
		{
			Type: "trade",
			Data: []Trade{
				{Symbol: "BBCA", Price: 9150, Volume: 500, Conditions: []string{"regular"}, TradeTsMs: 1719820800000},
				{Symbol: "TLKM", Price: 3120, Volume: 100, Conditions: nil, TradeTsMs: 0},
			},
		},
		{Type: "news", Data: nil},
		{Type: "", Data: []Trade{}},
	}

	for i, env := range cases {
		raw, err := Encode(env)
		if err != nil {
			t.Fatalf("case %d: Encode: %v", i, err)
		}

		got, err := Decode(raw)
		if err != nil {
			t.Fatalf("case %d: Decode: %v", i, err)
		}

		if got.Type != env.Type {
			t.Errorf("case %d: type = %q, want %q", i, got.Type, env.Type)
		}
		if len(got.Data) != len(env.Data) {
			t.Fatalf("case %d: data len = %d, want %d", i, len(got.Data), len(env.Data))
		}
		for j := range env.Data {
			want := env.Data[j]
			have := got.Data[j]
			if have.Symbol != want.Symbol || have.Price != want.Price || have.Volume != want.Volume || have.TradeTsMs != want.TradeTsMs {
				t.Errorf("case %d trade %d: got %+v, want %+v", i, j, have, want)
			}
			wantConditions := want.Conditions
			if wantConditions == nil {
				wantConditions = []string{}
			}
			haveConditions := have.Conditions
			if haveConditions == nil {
				haveConditions = []string{}
			}
			if !reflect.DeepEqual(haveConditions, wantConditions) {
				t.Errorf("case %d trade %d: conditions = %v, want %v", i, j, haveConditions, wantConditions)
			}
		}
	}
}

func TestDecodeRejectsUnknownVersion(t *testing.T) {
	raw, err := Encode(Envelope{Type: "trade"})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	raw[0] = 0xFF

	if _, err := Decode(raw); err == nil {
		t.Fatal("Decode: expected error for unknown version, got nil")
	}
}

func TestDecodeRejectsTruncatedFrame(t *testing.T) {
	raw, err := Encode(Envelope{
		Type: "trade",
		Data: []Trade{{Symbol: "BBCA", Price: 1, Volume: 1, TradeTsMs: 1}},
	})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	if _, err := Decode(raw[:len(raw)-3]); err == nil {
		t.Fatal("Decode: expected error for truncated frame, got nil")
	}
}

func TestDecodeRejectsTrailingBytes(t *testing.T) {
	raw, err := Encode(Envelope{Type: "trade"})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	raw = append(raw, 0x00)

	if _, err := Decode(raw); err == nil {
		t.Fatal("Decode: expected error for trailing bytes, got nil")
	}
}
