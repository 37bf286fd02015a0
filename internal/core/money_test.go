package core

import (
	"encoding/json"
	"testing"
)

func TestParseDecimalToCents(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"1.23", 123, true},
		{"1,23", 123, true},
		{"0.01", 1, true},
		{"1.005", 101, true}, // half-up rounding
		{" 2.50 ", 250, true},
		{"0", 0, true},
		{"1.500,50", 150050, true},
		{"-1", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseDecimalToCents(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
		}
	}
}

func TestMoneyUnmarshalTolerant(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{`12.5`, 1250},
		{`"3500"`, 350000},
		{`"12,75"`, 1275},
		{`null`, 0},
		{`"gratis"`, 0},
		{`true`, 0},
		{`{"a":1}`, 0},
	}
	for _, tc := range cases {
		var r struct {
			Costo Money `json:"costo"`
		}
		if err := json.Unmarshal([]byte(`{"costo":`+tc.in+`}`), &r); err != nil {
			t.Fatalf("%s: unexpected error %v", tc.in, err)
		}
		if r.Costo.Cents != tc.want {
			t.Fatalf("%s: want %d cents, got %d", tc.in, tc.want, r.Costo.Cents)
		}
	}
}

func TestMoneyMarshal(t *testing.T) {
	b, err := json.Marshal(Money{Cents: 123456})
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "1234.56" {
		t.Fatalf("got %s", b)
	}
}
