package analyzer

import "blockforensics/internal/script"

// OutputForWarnings is the minimal view of an output GenerateWarnings needs.
type OutputForWarnings struct {
	ScriptType string
	ValueSats  int64
}

// GenerateWarnings produces the transaction's warning list, checked in a
// fixed order and deduplicated by code.
func GenerateWarnings(feeSats int64, feeRate float64, rbfSignaling bool, outputs []OutputForWarnings) []string {
	warnings := make([]string, 0)

	if feeSats > 1_000_000 || feeRate > 200 {
		warnings = append(warnings, "HIGH_FEE")
	}

	for _, out := range outputs {
		if out.ScriptType != script.TypeOpReturn && out.ValueSats < 546 {
			warnings = append(warnings, "DUST_OUTPUT")
			break
		}
	}

	for _, out := range outputs {
		if out.ScriptType == script.TypeUnknown {
			warnings = append(warnings, "UNKNOWN_OUTPUT_SCRIPT")
			break
		}
	}

	if rbfSignaling {
		warnings = append(warnings, "RBF_SIGNALING")
	}

	return warnings
}
