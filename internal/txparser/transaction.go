// Package txparser deserializes raw Bitcoin transactions bit-exactly off
// the wire, independently computing txid/wtxid, size, weight, and vbytes —
// it never delegates to a wire-format library, since bit-exact parsing is
// the thing under implementation here, not an incidental dependency.
package txparser

import (
	"encoding/hex"
	"errors"
	"fmt"

	"blockforensics/internal/bitcoinhash"
	"blockforensics/internal/bytecursor"
)

// Input is one deserialized transaction input, before prevout/classification
// annotation is layered on by the analyzer.
type Input struct {
	PrevTxid [32]byte // as stored on the wire (little-endian internal order)
	PrevVout uint32
	ScriptSig []byte
	Sequence  uint32
	Witness   [][]byte // this input's witness stack; an empty, non-nil list for non-SegWit.
}

// Output is one deserialized transaction output.
type Output struct {
	Value  int64
	Script []byte
}

// Tx is the bit-exactly parsed transaction plus its derived identity and
// sizing fields.
type Tx struct {
	Version  int32
	Vin      []Input
	Vout     []Output
	Locktime uint32
	Segwit   bool

	Txid  string // reversed-hex double-SHA256 of the non-witness serialization
	Wtxid string // reversed-hex double-SHA256 of the full serialization; "" if !Segwit

	NonWitnessSize int
	WitnessSize    int
	Weight         int
	Vbytes         int
}

var errEmptyTx = errors.New("txparser: empty transaction bytes")

// Parse deserializes a raw transaction, following the wire grammar exactly:
// version, optional SegWit marker/flag, inputs, outputs, optional witness
// stacks (one per input), locktime.
func Parse(raw []byte) (*Tx, error) {
	if len(raw) < 4 {
		return nil, errEmptyTx
	}

	c := bytecursor.New(raw)

	version, err := c.ReadI32LE()
	if err != nil {
		return nil, fmt.Errorf("txparser: version: %w", err)
	}

	segwit := false
	if marker, err := c.Peek(2); err == nil && marker[0] == 0x00 && marker[1] == 0x01 {
		segwit = true
		if err := c.Advance(2); err != nil {
			return nil, fmt.Errorf("txparser: advance past marker/flag: %w", err)
		}
	}

	inputsStart := c.Offset()

	numInputs, err := c.ReadCompactSize()
	if err != nil {
		return nil, fmt.Errorf("txparser: num_inputs: %w", err)
	}

	vin := make([]Input, numInputs)
	for i := range vin {
		prevTxid, err := c.ReadHash()
		if err != nil {
			return nil, fmt.Errorf("txparser: input %d prev txid: %w", i, err)
		}
		prevVout, err := c.ReadU32LE()
		if err != nil {
			return nil, fmt.Errorf("txparser: input %d prev vout: %w", i, err)
		}
		scriptLen, err := c.ReadCompactSize()
		if err != nil {
			return nil, fmt.Errorf("txparser: input %d script_sig length: %w", i, err)
		}
		scriptSig, err := c.ReadBytes(int(scriptLen))
		if err != nil {
			return nil, fmt.Errorf("txparser: input %d script_sig: %w", i, err)
		}
		sequence, err := c.ReadU32LE()
		if err != nil {
			return nil, fmt.Errorf("txparser: input %d sequence: %w", i, err)
		}

		vin[i] = Input{
			PrevTxid:  prevTxid,
			PrevVout:  prevVout,
			ScriptSig: append([]byte(nil), scriptSig...),
			Sequence:  sequence,
		}
	}

	numOutputs, err := c.ReadCompactSize()
	if err != nil {
		return nil, fmt.Errorf("txparser: num_outputs: %w", err)
	}

	vout := make([]Output, numOutputs)
	for i := range vout {
		value, err := c.ReadU64LE()
		if err != nil {
			return nil, fmt.Errorf("txparser: output %d value: %w", i, err)
		}
		scriptLen, err := c.ReadCompactSize()
		if err != nil {
			return nil, fmt.Errorf("txparser: output %d script length: %w", i, err)
		}
		scriptPubkey, err := c.ReadBytes(int(scriptLen))
		if err != nil {
			return nil, fmt.Errorf("txparser: output %d script: %w", i, err)
		}
		vout[i] = Output{Value: int64(value), Script: append([]byte(nil), scriptPubkey...)}
	}

	outputsEnd := c.Offset()

	if segwit {
		for i := range vin {
			itemCount, err := c.ReadCompactSize()
			if err != nil {
				return nil, fmt.Errorf("txparser: input %d witness item count: %w", i, err)
			}
			items := make([][]byte, itemCount)
			for j := range items {
				itemLen, err := c.ReadCompactSize()
				if err != nil {
					return nil, fmt.Errorf("txparser: input %d witness item %d length: %w", i, j, err)
				}
				item, err := c.ReadBytes(int(itemLen))
				if err != nil {
					return nil, fmt.Errorf("txparser: input %d witness item %d: %w", i, j, err)
				}
				items[j] = append([]byte(nil), item...)
			}
			vin[i].Witness = items
		}
	} else {
		for i := range vin {
			vin[i].Witness = [][]byte{}
		}
	}

	locktime, err := c.ReadU32LE()
	if err != nil {
		return nil, fmt.Errorf("txparser: locktime: %w", err)
	}

	nonWitness := make([]byte, 0, 4+(outputsEnd-inputsStart)+4)
	nonWitness = append(nonWitness, raw[0:4]...)
	nonWitness = append(nonWitness, raw[inputsStart:outputsEnd]...)
	nonWitness = append(nonWitness, raw[len(raw)-4:]...)

	txid := hex.EncodeToString(bitcoinhash.Reverse(bitcoinhash.Double(nonWitness)))

	var wtxid string
	if segwit {
		wtxid = hex.EncodeToString(bitcoinhash.Reverse(bitcoinhash.Double(raw)))
	}

	nonWitnessSize := len(nonWitness)
	witnessSize := len(raw) - nonWitnessSize
	weight := nonWitnessSize*4 + witnessSize
	vbytes := (weight + 3) / 4

	return &Tx{
		Version:        version,
		Vin:            vin,
		Vout:           vout,
		Locktime:       locktime,
		Segwit:         segwit,
		Txid:           txid,
		Wtxid:          wtxid,
		NonWitnessSize: nonWitnessSize,
		WitnessSize:    witnessSize,
		Weight:         weight,
		Vbytes:         vbytes,
	}, nil
}

// Skip advances c past exactly one transaction without materializing any of
// its fields, returning the [start, end) byte range it occupied in the
// cursor's underlying buffer. Used by the block engine to frame transaction
// ranges inside a blk*.dat block payload cheaply.
func Skip(c *bytecursor.Cursor) (start, end int, err error) {
	start = c.Offset()

	if _, err := c.ReadI32LE(); err != nil {
		return 0, 0, fmt.Errorf("txparser/skip: version: %w", err)
	}

	segwit := false
	if marker, err := c.Peek(2); err == nil && marker[0] == 0x00 && marker[1] == 0x01 {
		segwit = true
		if err := c.Advance(2); err != nil {
			return 0, 0, err
		}
	}

	numInputs, err := c.ReadCompactSize()
	if err != nil {
		return 0, 0, fmt.Errorf("txparser/skip: num_inputs: %w", err)
	}
	for i := uint64(0); i < numInputs; i++ {
		if err := c.Advance(32 + 4); err != nil {
			return 0, 0, err
		}
		scriptLen, err := c.ReadCompactSize()
		if err != nil {
			return 0, 0, err
		}
		if err := c.Advance(int(scriptLen) + 4); err != nil {
			return 0, 0, err
		}
	}

	numOutputs, err := c.ReadCompactSize()
	if err != nil {
		return 0, 0, fmt.Errorf("txparser/skip: num_outputs: %w", err)
	}
	for i := uint64(0); i < numOutputs; i++ {
		if err := c.Advance(8); err != nil {
			return 0, 0, err
		}
		scriptLen, err := c.ReadCompactSize()
		if err != nil {
			return 0, 0, err
		}
		if err := c.Advance(int(scriptLen)); err != nil {
			return 0, 0, err
		}
	}

	if segwit {
		for i := uint64(0); i < numInputs; i++ {
			itemCount, err := c.ReadCompactSize()
			if err != nil {
				return 0, 0, err
			}
			for j := uint64(0); j < itemCount; j++ {
				itemLen, err := c.ReadCompactSize()
				if err != nil {
					return 0, 0, err
				}
				if err := c.Advance(int(itemLen)); err != nil {
					return 0, 0, err
				}
			}
		}
	}

	if err := c.Advance(4); err != nil { // locktime
		return 0, 0, fmt.Errorf("txparser/skip: locktime: %w", err)
	}

	return start, c.Offset(), nil
}
