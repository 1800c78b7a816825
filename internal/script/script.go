// Package script implements output-type classification, opcode disassembly,
// OP_RETURN payload extraction, and input-type classification (including
// nested-SegWit and Taproot keypath/scriptpath disambiguation).
package script

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strings"
)

// Output-side script types.
const (
	TypeP2PKH     = "p2pkh"
	TypeP2SH      = "p2sh"
	TypeP2WPKH    = "p2wpkh"
	TypeP2WSH     = "p2wsh"
	TypeP2TR      = "p2tr"
	TypeOpReturn  = "op_return"
	TypeUnknown   = "unknown"
)

// Input-side extensions to the output-side tags.
const (
	TypeP2SHP2WPKH     = "p2sh-p2wpkh"
	TypeP2SHP2WSH       = "p2sh-p2wsh"
	TypeP2TRKeypath     = "p2tr_keypath"
	TypeP2TRScriptpath   = "p2tr_scriptpath"
)

// ClassifyOutput determines the script type of an output by exact byte
// pattern, tried in order: p2pkh, p2sh, p2wpkh, p2wsh, p2tr, op_return,
// else unknown.
func ClassifyOutput(scriptPubkey []byte) string {
	switch {
	case len(scriptPubkey) == 25 &&
		scriptPubkey[0] == 0x76 && scriptPubkey[1] == 0xa9 && scriptPubkey[2] == 0x14 &&
		scriptPubkey[23] == 0x88 && scriptPubkey[24] == 0xac:
		return TypeP2PKH

	case len(scriptPubkey) == 23 &&
		scriptPubkey[0] == 0xa9 && scriptPubkey[1] == 0x14 && scriptPubkey[22] == 0x87:
		return TypeP2SH

	case len(scriptPubkey) == 22 &&
		scriptPubkey[0] == 0x00 && scriptPubkey[1] == 0x14:
		return TypeP2WPKH

	case len(scriptPubkey) == 34 &&
		scriptPubkey[0] == 0x00 && scriptPubkey[1] == 0x20:
		return TypeP2WSH

	case len(scriptPubkey) == 34 &&
		scriptPubkey[0] == 0x51 && scriptPubkey[1] == 0x20:
		return TypeP2TR

	case len(scriptPubkey) >= 1 && scriptPubkey[0] == 0x6a:
		return TypeOpReturn

	default:
		return TypeUnknown
	}
}

// ClassifyInput determines the script type of an input given the prevout it
// spends, its scriptSig, and its witness stack.
func ClassifyInput(prevScript, scriptSig []byte, witness [][]byte) string {
	prevType := ClassifyOutput(prevScript)

	switch prevType {
	case TypeP2PKH, TypeP2WPKH, TypeP2WSH:
		return prevType

	case TypeP2TR:
		if len(witness) == 1 && (len(witness[0]) == 64 || len(witness[0]) == 65) {
			return TypeP2TRKeypath
		}
		if len(witness) >= 2 {
			last := witness[len(witness)-1]
			if len(last) > 0 && last[0]&0xfe == 0xc0 {
				return TypeP2TRScriptpath
			}
		}
		return TypeP2TRKeypath

	case TypeP2SH:
		if len(witness) == 0 {
			return TypeUnknown
		}
		redeem, ok := singlePushPayload(scriptSig)
		if !ok {
			return TypeUnknown
		}
		switch ClassifyOutput(redeem) {
		case TypeP2WPKH:
			return TypeP2SHP2WPKH
		case TypeP2WSH:
			return TypeP2SHP2WSH
		default:
			return TypeUnknown
		}
	}

	return TypeUnknown
}

// singlePushPayload parses scriptSig as a single push whose total byte
// length equals push_len+1, returning the pushed bytes. This recognizes the
// nested-SegWit redeem-script pattern generically rather than hardcoding the
// 22/34-byte redeem script lengths.
func singlePushPayload(scriptSig []byte) ([]byte, bool) {
	if len(scriptSig) < 2 {
		return nil, false
	}
	op := scriptSig[0]
	if op < 0x01 || op > 0x4b {
		return nil, false
	}
	pushLen := int(op)
	if len(scriptSig) != pushLen+1 {
		return nil, false
	}
	return scriptSig[1:], true
}

// Disassemble converts script bytes to a space-joined ASM string
// (OP_PUSHBYTES_N, OP_PUSHDATA1/2/4, named opcodes, OP_UNKNOWN_0xNN for
// anything else).
func Disassemble(s []byte) string {
	if len(s) == 0 {
		return ""
	}

	var parts []string
	i := 0
	for i < len(s) {
		op := s[i]
		i++

		switch {
		case op >= 0x01 && op <= 0x4b:
			n := int(op)
			if i+n > len(s) {
				parts = append(parts, fmt.Sprintf("OP_PUSHBYTES_%d", n))
				i = len(s)
				continue
			}
			parts = append(parts, fmt.Sprintf("OP_PUSHBYTES_%d %s", n, hex.EncodeToString(s[i:i+n])))
			i += n

		case op == 0x4c: // OP_PUSHDATA1
			if i >= len(s) {
				parts = append(parts, "OP_PUSHDATA1")
				continue
			}
			n := int(s[i])
			i++
			if i+n > len(s) {
				n = len(s) - i
			}
			parts = append(parts, fmt.Sprintf("OP_PUSHDATA1 %s", hex.EncodeToString(s[i:i+n])))
			i += n

		case op == 0x4d: // OP_PUSHDATA2
			if i+2 > len(s) {
				parts = append(parts, "OP_PUSHDATA2")
				continue
			}
			n := int(binary.LittleEndian.Uint16(s[i : i+2]))
			i += 2
			if i+n > len(s) {
				n = len(s) - i
			}
			parts = append(parts, fmt.Sprintf("OP_PUSHDATA2 %s", hex.EncodeToString(s[i:i+n])))
			i += n

		case op == 0x4e: // OP_PUSHDATA4
			if i+4 > len(s) {
				parts = append(parts, "OP_PUSHDATA4")
				continue
			}
			n := int(binary.LittleEndian.Uint32(s[i : i+4]))
			i += 4
			if i+n > len(s) {
				n = len(s) - i
			}
			parts = append(parts, fmt.Sprintf("OP_PUSHDATA4 %s", hex.EncodeToString(s[i:i+n])))
			i += n

		default:
			parts = append(parts, opcodeName(op))
		}
	}

	return strings.Join(parts, " ")
}

// opReturnPrefixes maps the first bytes of an OP_RETURN payload to the
// protocol tag carrying that signature.
var opReturnPrefixes = []struct {
	prefix   []byte
	protocol string
}{
	{[]byte{0x6f, 0x6d, 0x6e, 0x69}, "omni"},
	{[]byte{0x01, 0x09, 0xf9, 0x11, 0x02}, "opentimestamps"},
}

// ParseOpReturn extracts the OP_RETURN payload: concatenates every push
// opcode's payload (direct pushes, PUSHDATA1/2/4, OP_0 as empty), stopping
// at the first non-push opcode or truncation. It attempts a UTF-8 decode of
// the concatenation and tags the protocol from a small prefix table.
func ParseOpReturn(s []byte) (dataHex string, dataUTF8 *string, protocol string) {
	if len(s) == 0 || s[0] != 0x6a {
		return "", nil, TypeUnknown
	}

	var data []byte
	i := 1
loop:
	for i < len(s) {
		op := s[i]
		i++

		var n int
		switch {
		case op == 0x00: // OP_0 -> empty push
			n = 0
		case op >= 0x01 && op <= 0x4b:
			n = int(op)
		case op == 0x4c:
			if i >= len(s) {
				break loop
			}
			n = int(s[i])
			i++
		case op == 0x4d:
			if i+2 > len(s) {
				break loop
			}
			n = int(binary.LittleEndian.Uint16(s[i : i+2]))
			i += 2
		case op == 0x4e:
			if i+4 > len(s) {
				break loop
			}
			n = int(binary.LittleEndian.Uint32(s[i : i+4]))
			i += 4
		default:
			break loop
		}

		if i+n > len(s) {
			break loop
		}
		data = append(data, s[i:i+n]...)
		i += n
	}

	dataHex = hex.EncodeToString(data)

	if len(data) > 0 && isValidUTF8(data) {
		str := string(data)
		dataUTF8 = &str
	}

	protocol = TypeUnknown
	for _, p := range opReturnPrefixes {
		if len(data) >= len(p.prefix) && string(data[:len(p.prefix)]) == string(p.prefix) {
			protocol = p.protocol
			break
		}
	}

	return dataHex, dataUTF8, protocol
}

func isValidUTF8(data []byte) bool {
	for _, r := range string(data) {
		if r == '�' {
			return false
		}
	}
	return true
}

// opcodeName returns the canonical name for a non-push opcode byte, per
// Bitcoin Core's script/script.h opcode table.
func opcodeName(op byte) string {
	if name, ok := opcodeNames[op]; ok {
		return name
	}
	return fmt.Sprintf("OP_UNKNOWN_0x%02x", op)
}

var opcodeNames = map[byte]string{
	0x00: "OP_0",
	0x4f: "OP_1NEGATE", 0x50: "OP_RESERVED",
	0x51: "OP_1", 0x52: "OP_2", 0x53: "OP_3", 0x54: "OP_4",
	0x55: "OP_5", 0x56: "OP_6", 0x57: "OP_7", 0x58: "OP_8",
	0x59: "OP_9", 0x5a: "OP_10", 0x5b: "OP_11", 0x5c: "OP_12",
	0x5d: "OP_13", 0x5e: "OP_14", 0x5f: "OP_15", 0x60: "OP_16",
	0x61: "OP_NOP", 0x62: "OP_VER", 0x63: "OP_IF", 0x64: "OP_NOTIF",
	0x65: "OP_VERIF", 0x66: "OP_VERNOTIF", 0x67: "OP_ELSE", 0x68: "OP_ENDIF",
	0x69: "OP_VERIFY", 0x6a: "OP_RETURN",
	0x6b: "OP_TOALTSTACK", 0x6c: "OP_FROMALTSTACK", 0x6d: "OP_2DROP",
	0x6e: "OP_2DUP", 0x6f: "OP_3DUP", 0x70: "OP_2OVER", 0x71: "OP_2ROT",
	0x72: "OP_2SWAP", 0x73: "OP_IFDUP", 0x74: "OP_DEPTH", 0x75: "OP_DROP",
	0x76: "OP_DUP", 0x77: "OP_NIP", 0x78: "OP_OVER", 0x79: "OP_PICK",
	0x7a: "OP_ROLL", 0x7b: "OP_ROT", 0x7c: "OP_SWAP", 0x7d: "OP_TUCK",
	0x7e: "OP_CAT", 0x7f: "OP_SUBSTR", 0x80: "OP_LEFT", 0x81: "OP_RIGHT",
	0x82: "OP_SIZE",
	0x83: "OP_INVERT", 0x84: "OP_AND", 0x85: "OP_OR", 0x86: "OP_XOR",
	0x87: "OP_EQUAL", 0x88: "OP_EQUALVERIFY", 0x89: "OP_RESERVED1", 0x8a: "OP_RESERVED2",
	0x8b: "OP_1ADD", 0x8c: "OP_1SUB", 0x8d: "OP_2MUL", 0x8e: "OP_2DIV",
	0x8f: "OP_NEGATE", 0x90: "OP_ABS", 0x91: "OP_NOT", 0x92: "OP_0NOTEQUAL",
	0x93: "OP_ADD", 0x94: "OP_SUB", 0x95: "OP_MUL", 0x96: "OP_DIV",
	0x97: "OP_MOD", 0x98: "OP_LSHIFT", 0x99: "OP_RSHIFT",
	0x9a: "OP_BOOLAND", 0x9b: "OP_BOOLOR", 0x9c: "OP_NUMEQUAL", 0x9d: "OP_NUMEQUALVERIFY",
	0x9e: "OP_NUMNOTEQUAL", 0x9f: "OP_LESSTHAN", 0xa0: "OP_GREATERTHAN",
	0xa1: "OP_LESSTHANOREQUAL", 0xa2: "OP_GREATERTHANOREQUAL", 0xa3: "OP_MIN", 0xa4: "OP_MAX",
	0xa5: "OP_WITHIN",
	0xa6: "OP_RIPEMD160", 0xa7: "OP_SHA1", 0xa8: "OP_SHA256", 0xa9: "OP_HASH160",
	0xaa: "OP_HASH256", 0xab: "OP_CODESEPARATOR", 0xac: "OP_CHECKSIG",
	0xad: "OP_CHECKSIGVERIFY", 0xae: "OP_CHECKMULTISIG", 0xaf: "OP_CHECKMULTISIGVERIFY",
	0xb0: "OP_NOP1", 0xb1: "OP_CHECKLOCKTIMEVERIFY", 0xb2: "OP_CHECKSEQUENCEVERIFY",
	0xb3: "OP_NOP4", 0xb4: "OP_NOP5", 0xb5: "OP_NOP6", 0xb6: "OP_NOP7",
	0xb7: "OP_NOP8", 0xb8: "OP_NOP9", 0xb9: "OP_NOP10",
	0xba: "OP_CHECKSIGADD",
	0xfd: "OP_PUBKEYHASH", 0xfe: "OP_PUBKEY", 0xff: "OP_INVALIDOPCODE",
}
