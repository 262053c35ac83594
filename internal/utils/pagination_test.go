package utils

import "testing"

func TestAtoiDefault(t *testing.T) {
	cases := []struct {
		s    string
		def  int
		want int
	}{
		// empty -> default
		{"", 10, 10},
		// valid ints
		{"42", 0, 42},
		{"-13", 1, -13},
		{"0012", 99, 12},
		// invalid -> default (no trim)
		{"x", 5, 5},
		{" 42", 7, 7},
		// overflow -> default
		{"999999999999999999999999", -1, -1},
	}

	for _, tc := range cases {
		if got := AtoiDefault(tc.s, tc.def); got != tc.want {
			t.Fatalf("AtoiDefault(%q, %d) = %d; want %d", tc.s, tc.def, got, tc.want)
		}
	}
}

func TestParsePage(t *testing.T) {
	cases := []struct {
		limit, offset string
		want          Page
	}{
		{"", "", Page{Limit: 50, Offset: 0}},
		{"10", "20", Page{Limit: 10, Offset: 20}},
		{" 10 ", " 5 ", Page{Limit: 10, Offset: 5}},
		{"0", "-3", Page{Limit: 50, Offset: 0}},
		{"-1", "x", Page{Limit: 50, Offset: 0}},
		{"500", "1", Page{Limit: 200, Offset: 1}},
	}
	for _, tc := range cases {
		if got := ParsePage(tc.limit, tc.offset, 50, 200); got != tc.want {
			t.Fatalf("ParsePage(%q, %q) = %+v; want %+v", tc.limit, tc.offset, got, tc.want)
		}
	}
	if got := ParsePage("1000", "", 20, 0); got.Limit != 1000 {
		t.Fatalf("max<=0 must not clamp, got %+v", got)
	}
}
