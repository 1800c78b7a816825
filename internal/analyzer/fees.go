package analyzer

import "math"

// Fee computes fee_sats and fee_rate_sat_vb (rounded to two decimals, zero
// when vbytes is zero).
func Fee(totalInputSats, totalOutputSats int64, vbytes int) (feeSats int64, feeRateSatVb float64) {
	feeSats = totalInputSats - totalOutputSats
	if vbytes == 0 {
		return feeSats, 0
	}
	raw := float64(feeSats) / float64(vbytes)
	return feeSats, math.Round(raw*100) / 100
}

// SegwitSavings holds the witness-discount comparison against an
// equivalent legacy-weight encoding of the same transaction.
type SegwitSavings struct {
	WitnessBytes    int
	NonWitnessBytes int
	TotalBytes      int
	WeightActual    int
	WeightIfLegacy  int
	SavingsPct      float64
}

// ComputeSegwitSavings computes the SegWit savings fields for a SegWit
// transaction. Callers must only call this when segwit==true.
func ComputeSegwitSavings(nonWitnessSize, witnessSize, weight int) SegwitSavings {
	totalSize := nonWitnessSize + witnessSize
	weightIfLegacy := totalSize * 4
	var savingsPct float64
	if weightIfLegacy > 0 {
		savingsPct = (1.0 - float64(weight)/float64(weightIfLegacy)) * 100
		savingsPct = math.Round(savingsPct*100) / 100
	}
	return SegwitSavings{
		WitnessBytes:    witnessSize,
		NonWitnessBytes: nonWitnessSize,
		TotalBytes:      totalSize,
		WeightActual:    weight,
		WeightIfLegacy:  weightIfLegacy,
		SavingsPct:      savingsPct,
	}
}
