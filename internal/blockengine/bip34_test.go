package blockengine

import "testing"

func TestExtractBIP34Height(t *testing.T) {
	cases := []struct {
		name      string
		scriptSig []byte
		want      int64
	}{
		{"single byte height", []byte{0x01, 0x64}, 100},
		{"three byte little endian", []byte{0x03, 0x40, 0x0d, 0x03}, 0x00030d40},
		{"too short", []byte{0x01}, 0},
		{"push length zero", []byte{0x00, 0xff}, 0},
		{"push length exceeds buffer", []byte{0x08, 0x01}, 0},
		{"push length beyond max", []byte{0x09, 1, 2, 3, 4, 5, 6, 7, 8, 9}, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := extractBIP34Height(tc.scriptSig)
			if got != tc.want {
				t.Errorf("extractBIP34Height(%x) = %d, want %d", tc.scriptSig, got, tc.want)
			}
		})
	}
}
