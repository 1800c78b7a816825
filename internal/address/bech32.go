package address

import (
	"errors"
	"strings"
)

const bech32Charset = "qpzry9x8gf2tvdw0s3jn54khce6mua7l"

const (
	bech32Const  = uint32(1)          // BIP173 constant for witness version 0
	bech32mConst = uint32(0x2bc830a3) // BIP350 constant for witness version >= 1
)

var bech32Generator = [5]uint32{0x3b6a57b2, 0x26508e6d, 0x1ea119fa, 0x3d4233dd, 0x2a1462b3}

func bech32Polymod(values []byte) uint32 {
	chk := uint32(1)
	for _, v := range values {
		top := chk >> 25
		chk = (chk&0x1ffffff)<<5 ^ uint32(v)
		for i := 0; i < 5; i++ {
			if (top>>uint(i))&1 != 0 {
				chk ^= bech32Generator[i]
			}
		}
	}
	return chk
}

func bech32HRPExpand(hrp string) []byte {
	out := make([]byte, 0, len(hrp)*2+1)
	for i := 0; i < len(hrp); i++ {
		out = append(out, hrp[i]>>5)
	}
	out = append(out, 0)
	for i := 0; i < len(hrp); i++ {
		out = append(out, hrp[i]&31)
	}
	return out
}

func bech32CreateChecksum(hrp string, data []byte, constant uint32) []byte {
	values := append(bech32HRPExpand(hrp), data...)
	values = append(values, 0, 0, 0, 0, 0, 0)
	mod := bech32Polymod(values) ^ constant

	checksum := make([]byte, 6)
	for i := 0; i < 6; i++ {
		checksum[i] = byte((mod >> uint(5*(5-i))) & 31)
	}
	return checksum
}

// convertBits regroups a sequence of bits between 8-bit bytes and 5-bit
// Bech32 groups. pad controls whether a short trailing group is kept
// (encoding) or must be all-zero and discarded (decoding).
func convertBits(data []byte, fromBits, toBits uint, pad bool) ([]byte, error) {
	acc := uint32(0)
	bits := uint(0)
	maxv := uint32(1<<toBits) - 1
	var out []byte

	for _, b := range data {
		if b>>fromBits != 0 {
			return nil, errors.New("address: invalid data for bit conversion")
		}
		acc = (acc << fromBits) | uint32(b)
		bits += fromBits
		for bits >= toBits {
			bits -= toBits
			out = append(out, byte((acc>>bits)&maxv))
		}
	}

	if pad {
		if bits > 0 {
			out = append(out, byte((acc<<(toBits-bits))&maxv))
		}
	} else if bits >= fromBits || (acc<<(toBits-bits))&maxv != 0 {
		return nil, errors.New("address: non-zero padding in bit conversion")
	}

	return out, nil
}

// encodeSegwitAddress encodes a witness program as a Bech32 (witver 0) or
// Bech32m (witver >= 1) address with human-readable part "bc". The variant
// is selected purely by witness version, per BIP350: do not accept
// cross-variant checksums.
func encodeSegwitAddress(hrp string, witver byte, program []byte) (string, error) {
	fiveBit, err := convertBits(program, 8, 5, true)
	if err != nil {
		return "", err
	}
	data := append([]byte{witver}, fiveBit...)

	constant := bech32Const
	if witver >= 1 {
		constant = bech32mConst
	}
	checksum := bech32CreateChecksum(hrp, data, constant)
	data = append(data, checksum...)

	var sb strings.Builder
	sb.WriteString(hrp)
	sb.WriteByte('1')
	for _, d := range data {
		sb.WriteByte(bech32Charset[d])
	}
	return sb.String(), nil
}

// DecodeSegwitAddress recovers (witver, witprog) from a Bech32/Bech32m
// address, validating that witness version 0 only validates under the
// Bech32 constant and version >= 1 only under the Bech32m constant.
func DecodeSegwitAddress(addr string) (hrp string, witver byte, witprog []byte, err error) {
	lower := strings.ToLower(addr)
	if addr != lower && addr != strings.ToUpper(addr) {
		return "", 0, nil, errors.New("address: mixed-case bech32 string")
	}
	addr = lower

	pos := strings.LastIndexByte(addr, '1')
	if pos < 1 || pos+7 > len(addr) {
		return "", 0, nil, errors.New("address: invalid bech32 separator position")
	}
	hrp = addr[:pos]
	dataPart := addr[pos+1:]

	data := make([]byte, len(dataPart))
	for i := 0; i < len(dataPart); i++ {
		idx := strings.IndexByte(bech32Charset, dataPart[i])
		if idx < 0 {
			return "", 0, nil, errors.New("address: invalid bech32 character")
		}
		data[i] = byte(idx)
	}

	payload, checksum := data[:len(data)-6], data[len(data)-6:]
	full := append(bech32HRPExpand(hrp), payload...)
	full = append(full, checksum...)
	mod := bech32Polymod(full)

	witver = payload[0]
	var wantConst uint32
	if witver == 0 {
		wantConst = bech32Const
	} else {
		wantConst = bech32mConst
	}
	if mod != wantConst {
		return "", 0, nil, errors.New("address: bech32 checksum does not match witness-version variant")
	}

	prog, err := convertBits(payload[1:], 5, 8, false)
	if err != nil {
		return "", 0, nil, err
	}
	return hrp, witver, prog, nil
}
