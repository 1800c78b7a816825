// Package address derives Bitcoin mainnet addresses from a
// (script_type, script_bytes) pair, implementing Base58Check (P2PKH, P2SH)
// and Bech32/Bech32m (P2WPKH, P2WSH, P2TR) from scratch. This is
// deliberately not delegated to a wrapping library: independently
// implementing these wire-format encodings is the point of this package,
// not an incidental detail (see DESIGN.md).
package address

import "blockforensics/internal/script"

const (
	versionP2PKH byte = 0x00
	versionP2SH  byte = 0x05
	hrpMainnet        = "bc"
)

// FromScript derives the address for the given scriptPubkey, or returns
// ("", false) when the script type carries no address (OP_RETURN, unknown).
func FromScript(scriptPubkey []byte) (string, bool) {
	switch script.ClassifyOutput(scriptPubkey) {
	case script.TypeP2PKH:
		if len(scriptPubkey) != 25 {
			return "", false
		}
		return encodeBase58Check(versionP2PKH, scriptPubkey[3:23]), true

	case script.TypeP2SH:
		if len(scriptPubkey) != 23 {
			return "", false
		}
		return encodeBase58Check(versionP2SH, scriptPubkey[2:22]), true

	case script.TypeP2WPKH:
		if len(scriptPubkey) != 22 {
			return "", false
		}
		addr, err := encodeSegwitAddress(hrpMainnet, 0, scriptPubkey[2:22])
		if err != nil {
			return "", false
		}
		return addr, true

	case script.TypeP2WSH:
		if len(scriptPubkey) != 34 {
			return "", false
		}
		addr, err := encodeSegwitAddress(hrpMainnet, 0, scriptPubkey[2:34])
		if err != nil {
			return "", false
		}
		return addr, true

	case script.TypeP2TR:
		if len(scriptPubkey) != 34 {
			return "", false
		}
		addr, err := encodeSegwitAddress(hrpMainnet, 1, scriptPubkey[2:34])
		if err != nil {
			return "", false
		}
		return addr, true

	default:
		return "", false
	}
}
