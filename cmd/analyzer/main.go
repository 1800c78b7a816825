// Command analyzer is the CLI entrypoint: transaction mode takes a fixture
// JSON file, block mode takes a blk*.dat/rev*.dat/xor-key triple. Output is
// written under out/ and, for transaction mode, also echoed to stdout.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"blockforensics/internal/apperror"
	"blockforensics/internal/metrics"
	"blockforensics/pkg/parser"
	"blockforensics/pkg/types"

	"go.uber.org/zap"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if len(os.Args) < 2 {
		emitError(logger, os.Stdout, apperror.New(apperror.CodeInvalidArgs,
			"usage: analyzer <fixture.json> or analyzer --block <blk.dat> <rev.dat> <xor.dat>", nil))
		os.Exit(1)
	}

	if os.Args[1] == "--block" {
		if len(os.Args) < 5 {
			emitError(logger, os.Stderr, apperror.New(apperror.CodeInvalidArgs,
				"block mode requires: --block <blk.dat> <rev.dat> <xor.dat>", nil))
			os.Exit(1)
		}
		runBlockMode(logger, os.Args[2], os.Args[3], os.Args[4])
		return
	}

	runTransactionMode(logger, os.Args[1])
}

func runTransactionMode(logger *zap.Logger, fixturePath string) {
	fixtureData, err := os.ReadFile(fixturePath)
	if err != nil {
		emitError(logger, os.Stdout, apperror.New(apperror.CodeFileNotFound, "failed to read fixture", err))
		os.Exit(1)
	}

	var fixture types.Fixture
	if err := json.Unmarshal(fixtureData, &fixture); err != nil {
		emitError(logger, os.Stdout, apperror.New(apperror.CodeInvalidFixture, "failed to parse fixture JSON", err))
		os.Exit(1)
	}

	result, err := parser.ParseTransaction(fixture)
	if err != nil {
		logger.Warn("transaction parse failed", zap.Error(err))
		emitError(logger, os.Stdout, apperror.New(apperror.CodeInvalidTx, err.Error(), err))
		os.Exit(1)
	}

	if err := os.MkdirAll("out", 0o755); err != nil {
		emitError(logger, os.Stdout, apperror.New(apperror.CodeIOError, "failed to create output directory", err))
		os.Exit(1)
	}

	outputJSON, _ := json.MarshalIndent(result, "", "  ")
	outputPath := filepath.Join("out", result.Txid+".json")
	if err := os.WriteFile(outputPath, outputJSON, 0o644); err != nil {
		emitError(logger, os.Stdout, apperror.New(apperror.CodeIOError, "failed to write output file", err))
		os.Exit(1)
	}

	logger.Info("transaction analyzed", zap.String("txid", result.Txid), zap.Int("warnings", len(result.Warnings)))
	fmt.Println(string(outputJSON))
}

// runBlockMode writes each parsed block's JSON into out/ and logs progress.
// Per-block errors go to stderr only — block mode has no single JSON
// envelope to carry a partial-failure result on stdout.
func runBlockMode(logger *zap.Logger, blkPath, revPath, xorPath string) {
	for _, path := range []string{blkPath, revPath, xorPath} {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			emitError(logger, os.Stderr, apperror.New(apperror.CodeFileNotFound, fmt.Sprintf("file not found: %s", path), err))
			os.Exit(1)
		}
	}

	blocks, err := parser.ParseBlockFile(blkPath, revPath, xorPath)
	if err != nil {
		var appErr *apperror.Error
		if !errors.As(err, &appErr) {
			appErr = apperror.New(apperror.CodeBlockParseError, err.Error(), err)
		}
		logger.Error("block parse failed", zap.Error(err))
		emitError(logger, os.Stderr, appErr)
		os.Exit(1)
	}

	if err := os.MkdirAll("out", 0o755); err != nil {
		emitError(logger, os.Stderr, apperror.New(apperror.CodeIOError, "failed to create output directory", err))
		os.Exit(1)
	}

	for _, block := range blocks {
		outputJSON, _ := json.MarshalIndent(block, "", "  ")
		outputPath := filepath.Join("out", block.BlockHeader.BlockHash+".json")
		if err := os.WriteFile(outputPath, outputJSON, 0o644); err != nil {
			emitError(logger, os.Stderr, apperror.New(apperror.CodeIOError, "failed to write block output", err))
			os.Exit(1)
		}
		metrics.LastBlockTxCount.Set(float64(block.TxCount))
		logger.Info("block analyzed", zap.String("block_hash", block.BlockHeader.BlockHash), zap.Int("tx_count", block.TxCount))
	}
}

func emitError(logger *zap.Logger, w *os.File, appErr *apperror.Error) {
	envelope := struct {
		OK    bool             `json:"ok"`
		Error *types.ErrorInfo `json:"error"`
	}{
		OK:    false,
		Error: &types.ErrorInfo{Code: string(appErr.Code), Message: appErr.Message},
	}
	errJSON, _ := json.Marshal(envelope)
	fmt.Fprintln(w, string(errJSON))
	fmt.Fprintf(os.Stderr, "error: %s\n", appErr)
}
