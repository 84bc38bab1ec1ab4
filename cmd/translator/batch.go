package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ovmTranslator/internal/config"
	"ovmTranslator/internal/indexer"
	"ovmTranslator/internal/model"
	"ovmTranslator/internal/ovm"
)

func runBatch(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadBatch(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.In == "" {
		return fmt.Errorf("input path is required")
	}
	if cfg.Out == "" {
		return fmt.Errorf("output path is required")
	}
	if cfg.Errors == "" {
		return fmt.Errorf("errors path is required")
	}

	hashMap, err := indexer.ParseHashMap(cfg.TxHashMap)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	translator, err := ovm.NewTranslator(logger)
	if err != nil {
		return err
	}

	inputFile, err := os.Open(cfg.In)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer inputFile.Close()

	outWriter, err := newJSONLWriter(cfg.Out)
	if err != nil {
		return err
	}
	defer outWriter.Close()

	errWriter, err := newJSONLWriter(cfg.Errors)
	if err != nil {
		return err
	}
	defer errWriter.Close()

	logger.Info("batch start",
		zap.String("in", cfg.In),
		zap.String("out", cfg.Out),
		zap.String("errors", cfg.Errors),
		zap.Int("tx_hash_map", len(hashMap)),
	)

	stats, err := translateStream(ctx, inputFile, translator, indexer.StaticHashes(hashMap), outWriter, errWriter, logger)
	if err != nil {
		return err
	}

	logger.Info("batch complete",
		zap.Int("total", stats.total),
		zap.Int("translated", stats.translated),
		zap.Int("skipped", stats.skipped),
		zap.Int("failed", stats.failed),
	)
	return nil
}

type recordWriter interface {
	Write(value interface{}) error
}

type batchStats struct {
	total      int
	translated int
	skipped    int
	failed     int
}

// translateStream translates one raw receipt per input line. Malformed lines
// are reported to errs and do not stop the stream; null lines are skipped.
func translateStream(ctx context.Context, in io.Reader, translator *ovm.Translator, hashes indexer.HashResolver, out, errs recordWriter, logger *zap.Logger) (batchStats, error) {
	var stats batchStats

	scanner := bufio.NewScanner(in)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 10*1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		stats.total++

		var receipt *model.Receipt
		if err := json.Unmarshal(line, &receipt); err != nil {
			stats.failed++
			writeTranslateError(errs, model.TranslateError{Line: lineNo, Error: err.Error()})
			continue
		}
		if receipt == nil {
			stats.skipped++
			continue
		}

		translated, err := indexer.TranslateReceipt(ctx, translator, hashes, receipt, logger)
		if err != nil {
			stats.failed++
			writeTranslateError(errs, model.TranslateError{Line: lineNo, TxHash: receipt.TransactionHash.Hex(), Error: err.Error()})
			continue
		}

		if err := out.Write(translated); err != nil {
			return stats, err
		}
		stats.translated++
	}

	if err := scanner.Err(); err != nil {
		return stats, fmt.Errorf("scan input: %w", err)
	}
	return stats, nil
}

// jsonlWriter truncates its file and writes one JSON document per line.
type jsonlWriter struct {
	file    *os.File
	buf     *bufio.Writer
	encoder *json.Encoder
	lines   int
}

func newJSONLWriter(path string) (*jsonlWriter, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create dir %s: %w", dir, err)
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}

	buf := bufio.NewWriter(file)
	return &jsonlWriter{file: file, buf: buf, encoder: json.NewEncoder(buf)}, nil
}

// Write encodes value followed by a newline.
func (w *jsonlWriter) Write(value interface{}) error {
	if err := w.encoder.Encode(value); err != nil {
		return fmt.Errorf("encode line %d: %w", w.lines+1, err)
	}
	w.lines++
	return nil
}

// Close flushes buffered lines and closes the file.
func (w *jsonlWriter) Close() error {
	if w == nil {
		return nil
	}
	flushErr := w.buf.Flush()
	closeErr := w.file.Close()
	if flushErr != nil {
		return fmt.Errorf("flush %s: %w", w.file.Name(), flushErr)
	}
	return closeErr
}

func writeTranslateError(writer recordWriter, errRecord model.TranslateError) {
	if writer == nil {
		return
	}
	_ = writer.Write(errRecord)
}
