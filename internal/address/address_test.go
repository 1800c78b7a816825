package address

import (
	"bytes"
	"testing"
)

func TestBase58CheckRoundTrip(t *testing.T) {
	hash := bytes.Repeat([]byte{0xab}, 20)
	addr := encodeBase58Check(versionP2PKH, hash)

	version, payload, err := decodeBase58Check(addr)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if version != versionP2PKH {
		t.Errorf("version = %x, want %x", version, versionP2PKH)
	}
	if !bytes.Equal(payload, hash) {
		t.Errorf("payload = %x, want %x", payload, hash)
	}
}

func TestBase58CheckBadChecksum(t *testing.T) {
	hash := bytes.Repeat([]byte{0x01}, 20)
	addr := encodeBase58Check(versionP2SH, hash)
	corrupted := addr[:len(addr)-1] + "1"
	if corrupted == addr {
		t.Skip("corruption produced identical string")
	}
	if _, _, err := decodeBase58Check(corrupted); err == nil {
		t.Errorf("expected checksum error for corrupted address")
	}
}

func TestBech32P2WPKHRoundTrip(t *testing.T) {
	program := bytes.Repeat([]byte{0x11}, 20)
	addr, err := encodeSegwitAddress(hrpMainnet, 0, program)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	hrp, witver, witprog, err := DecodeSegwitAddress(addr)
	if err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if hrp != hrpMainnet || witver != 0 || !bytes.Equal(witprog, program) {
		t.Errorf("got hrp=%s witver=%d witprog=%x", hrp, witver, witprog)
	}
}

func TestBech32mP2TRRoundTrip(t *testing.T) {
	program := bytes.Repeat([]byte{0x22}, 32)
	addr, err := encodeSegwitAddress(hrpMainnet, 1, program)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, witver, witprog, err := DecodeSegwitAddress(addr)
	if err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if witver != 1 || !bytes.Equal(witprog, program) {
		t.Errorf("got witver=%d witprog=%x", witver, witprog)
	}
}

func TestBech32RejectsCrossVariantChecksum(t *testing.T) {
	program := bytes.Repeat([]byte{0x33}, 20)
	bech32Addr, err := encodeSegwitAddress(hrpMainnet, 0, program)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Re-encode the same data part under the bech32m constant by building
	// it directly, then confirm decoding rejects it as witver 0.
	data := append([]byte{0}, mustConvertBits(t, program)...)
	checksum := bech32CreateChecksum(hrpMainnet, data, bech32mConst)
	data = append(data, checksum...)

	var sb []byte
	sb = append(sb, hrpMainnet...)
	sb = append(sb, '1')
	for _, d := range data {
		sb = append(sb, bech32Charset[d])
	}
	wrongVariant := string(sb)

	if wrongVariant == bech32Addr {
		t.Fatal("test construction produced the same address")
	}
	if _, _, _, err := DecodeSegwitAddress(wrongVariant); err == nil {
		t.Errorf("expected error decoding witver-0 data under bech32m checksum")
	}
}

func mustConvertBits(t *testing.T, program []byte) []byte {
	t.Helper()
	out, err := convertBits(program, 8, 5, true)
	if err != nil {
		t.Fatalf("convertBits: %v", err)
	}
	return out
}

func TestFromScriptDerivesExpectedTypes(t *testing.T) {
	p2pkh := append(append([]byte{0x76, 0xa9, 0x14}, bytes.Repeat([]byte{0x01}, 20)...), 0x88, 0xac)
	addr, ok := FromScript(p2pkh)
	if !ok || len(addr) == 0 {
		t.Errorf("expected derivable p2pkh address, got %q ok=%v", addr, ok)
	}

	opReturn := []byte{0x6a, 0x00}
	if _, ok := FromScript(opReturn); ok {
		t.Errorf("op_return must not derive an address")
	}
}
