// Package analyzer computes the derived, per-transaction analysis fields:
// fees, BIP125 RBF signaling, BIP68 relative timelocks, absolute locktime
// classification, warnings, and SegWit savings.
package analyzer

// LocktimeType classifies an absolute nLockTime value.
func LocktimeType(locktime uint32) string {
	switch {
	case locktime == 0:
		return "none"
	case locktime < 500_000_000:
		return "block_height"
	default:
		return "unix_timestamp"
	}
}

// RelativeTimelock decodes a BIP68 relative timelock from an input's
// sequence field.
func RelativeTimelock(sequence uint32) (enabled bool, kind string, value uint32) {
	if sequence&0x80000000 != 0 {
		return false, "", 0
	}
	if sequence&0x00400000 != 0 {
		return true, "time", (sequence & 0xffff) * 512
	}
	return true, "blocks", sequence & 0xffff
}

// IsRBFSignaling reports whether any input's sequence signals BIP125
// opt-in replace-by-fee.
func IsRBFSignaling(sequences []uint32) bool {
	for _, seq := range sequences {
		if seq < 0xfffffffe {
			return true
		}
	}
	return false
}
