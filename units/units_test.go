package units

import "testing"

func TestRequestSizeBucket(t *testing.T) {
	cases := map[uint32]int{0: 0, 1: 0, 2: 1, 3: 1, 1024: 10}
	for in, want := range cases {
		if got := RequestSizeBucket(in); got != want {
			t.Errorf("RequestSizeBucket(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestFormatCapacity(t *testing.T) {
	if got := FormatCapacity(500, 1); got != "500 B" {
		t.Errorf("FormatCapacity(500, 1) = %q", got)
	}
	if got := FormatCapacity(1500, 1000); got != "1.5 MB" {
		t.Errorf("FormatCapacity(1500, 1000) = %q", got)
	}
}
