package wireformat

import "testing"

func TestReadCoreVarint(t *testing.T) {
	cases := []struct {
		name    string
		buf     []byte
		want    uint64
		wantOff int
	}{
		{"zero", []byte{0x00}, 0, 1},
		{"single byte max", []byte{0x7f}, 0x7f, 1},
		{"two bytes", []byte{0x81, 0x00}, 256, 2}, // (0x01 +1 continuation)<<7 | 0x00
		{"three bytes", []byte{0xff, 0xff, 0x7f}, 2097151 + 16384 + 128, 3},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, off, err := ReadCoreVarint(tc.buf, 0)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Errorf("value = %d, want %d", got, tc.want)
			}
			if off != tc.wantOff {
				t.Errorf("offset = %d, want %d", off, tc.wantOff)
			}
		})
	}
}

func TestReadCoreVarintTruncated(t *testing.T) {
	if _, _, err := ReadCoreVarint([]byte{0x80}, 0); err != ErrReadPastEnd {
		t.Fatalf("expected ErrReadPastEnd, got %v", err)
	}
}

func TestCompressDecompressAmountRoundTrip(t *testing.T) {
	amounts := []uint64{0, 1, 2, 10, 100, 546, 1000, 12345, 100000000, 2100000000000000}
	for _, a := range amounts {
		compressed := CompressAmount(a)
		got := uint64(DecompressAmount(compressed))
		if got != a {
			t.Errorf("round trip failed for %d: compressed=%d decompressed=%d", a, compressed, got)
		}
	}
}

func TestDecompressAmountKnownVectors(t *testing.T) {
	cases := []struct {
		compressed uint64
		sats       int64
	}{
		{0, 0},
		{1, 1},
		{9, 100000000}, // 1 BTC
	}
	for _, tc := range cases {
		got := DecompressAmount(tc.compressed)
		if got != tc.sats {
			t.Errorf("DecompressAmount(%d) = %d, want %d", tc.compressed, got, tc.sats)
		}
	}
}
