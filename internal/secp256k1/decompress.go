// Package secp256k1 implements the one piece of elliptic-curve math the
// undo decoder needs: recovering the full (x, y) point from a compressed
// public key's x-coordinate, for nSize 4/5 legacy P2PK undo entries. No
// secret material is ever involved (this runs on already-public chain
// data), so a plain, non-constant-time modular square root is sufficient.
package secp256k1

import (
	"errors"
	"math/big"
)

// field prime p = 2^256 - 2^32 - 977.
var fieldPrime = func() *big.Int {
	p := new(big.Int).Lsh(big.NewInt(1), 256)
	p.Sub(p, new(big.Int).Lsh(big.NewInt(1), 32))
	p.Sub(p, big.NewInt(977))
	return p
}()

var sevenB = big.NewInt(7)

// sqrtExponent is (p+1)/4, valid because p mod 4 == 3 for secp256k1.
var sqrtExponent = func() *big.Int {
	e := new(big.Int).Add(fieldPrime, big.NewInt(1))
	return e.Rsh(e, 2)
}()

// ErrNotOnCurve is returned when x has no corresponding point on the curve
// (x^3+7 is not a quadratic residue mod p).
var ErrNotOnCurve = errors.New("secp256k1: x is not a valid curve x-coordinate")

// DecompressPoint recovers the 32-byte Y coordinate for a given 32-byte X
// coordinate and a parity bit (false = even Y, true = odd Y), matching the
// 0x02/0x03 compressed-key prefix convention.
func DecompressPoint(x []byte, oddY bool) ([]byte, error) {
	xi := new(big.Int).SetBytes(x)

	// y^2 = x^3 + 7 mod p
	ySq := new(big.Int).Exp(xi, big.NewInt(3), fieldPrime)
	ySq.Add(ySq, sevenB)
	ySq.Mod(ySq, fieldPrime)

	y := new(big.Int).Exp(ySq, sqrtExponent, fieldPrime)

	// Verify: candidate^2 must equal ySq, or no square root exists.
	check := new(big.Int).Exp(y, big.NewInt(2), fieldPrime)
	if check.Cmp(ySq) != 0 {
		return nil, ErrNotOnCurve
	}

	// Fix parity: prefix 0x02 (oddY=false) -> even y; 0x03 (oddY=true) -> odd y.
	isOdd := y.Bit(0) == 1
	if isOdd != oddY {
		y.Sub(fieldPrime, y)
	}

	out := make([]byte, 32)
	yb := y.Bytes()
	copy(out[32-len(yb):], yb)
	return out, nil
}
