package projecta

import "testing"

func TestToMinorUnitsRounds(t *testing.T) {
	cases := []struct {
		amount   float64
		expected int64
	}{
		{amount: 0, expected: 0},
		{amount: 12.34, expected: 1234},
		{amount: 12.345, expected: 1235},
		{amount: 99.999, expected: 10000},
		{amount: -5.5, expected: -550},
	}
	for _, testCase := range cases {
		if actual := ToMinorUnits(testCase.amount); actual != testCase.expected {
			t.Fatalf("ToMinorUnits(%v) = %d, expected %d", testCase.amount, actual, testCase.expected)
		}
	}
}

func TestFormatMinorUnits(t *testing.T) {
	cases := []struct {
		amount   int64
		expected string
	}{
		{amount: 0, expected: "0.00"},
		{amount: 5, expected: "0.05"},
		{amount: 123456, expected: "1234.56"},
		{amount: -550, expected: "-5.50"},
	}
	for _, testCase := range cases {
		if actual := FormatMinorUnits(testCase.amount); actual != testCase.expected {
			t.Fatalf("FormatMinorUnits(%d) = %q, expected %q", testCase.amount, actual, testCase.expected)
		}
	}
}

func TestToDateView(t *testing.T) {
	if actual := ToDateView("2024-03-09T00:00:00Z"); actual != "09/03/2024" {
		t.Fatalf("expected 09/03/2024, got %q", actual)
	}
	if actual := ToDateView("not-a-date"); actual != "not-a-date" {
		t.Fatalf("expected unparsable input unchanged, got %q", actual)
	}
}
