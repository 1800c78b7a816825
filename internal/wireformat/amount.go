package wireformat

// DecompressAmount reverses Bitcoin Core's compressed-amount encoding
// (serialize.h DecompressAmount). x=0 maps to 0 satoshis. Otherwise:
// x -= 1; e = x%10; x /= 10; if e<9: d=(x%9)+1, x/=9, n=x*10+d, else n=x+1;
// then n is multiplied by 10, e times.
func DecompressAmount(x uint64) int64 {
	if x == 0 {
		return 0
	}
	x--
	e := x % 10
	x /= 10

	var n uint64
	if e < 9 {
		d := x%9 + 1
		x /= 9
		n = x*10 + d
	} else {
		n = x + 1
	}
	for i := uint64(0); i < e; i++ {
		n *= 10
	}
	return int64(n)
}

// CompressAmount is the inverse of DecompressAmount. It exists so the
// round trip (decompress(compress(n)) == n) can be exercised directly in
// tests, the same way Bitcoin Core ships both directions of serialize.h's
// amount (de)compression side by side.
func CompressAmount(n uint64) uint64 {
	if n == 0 {
		return 0
	}
	e := uint64(0)
	for n%10 == 0 && e < 9 {
		n /= 10
		e++
	}
	if e < 9 {
		d := n % 10
		n /= 10
		return 1 + (n*9+d-1)*10 + e
	}
	return 1 + (n-1)*10 + 9
}
