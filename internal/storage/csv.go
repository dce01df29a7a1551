package storage

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"walletExport/internal/model"
)

var csvHeader = []string{
	"Transaction Hash",
	"Date & Time",
	"From Address",
	"To Address",
	"Transaction Type",
	"Asset Contract Address",
	"Asset Symbol/Name",
	"Token ID",
	"Value/Amount",
	"Gas Fee",
}

const feeStatusColumn = "Fee Status"

// Header returns the CSV column names.
func Header(includeFeeStatus bool) []string {
	cols := append([]string(nil), csvHeader...)
	if includeFeeStatus {
		cols = append(cols, feeStatusColumn)
	}
	return cols
}

// CSVSink streams rows into a CSV file, flushing after every page.
type CSVSink struct {
	includeFeeStatus bool

	mu     sync.Mutex
	file   *os.File
	writer *bufio.Writer
	rows   int
}

// NewCSVSink creates or truncates path and writes the header line.
func NewCSVSink(path string, includeFeeStatus bool) (*CSVSink, error) {
	if path == "" {
		return nil, fmt.Errorf("csv output path is required")
	}
	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create output dir: %w", err)
		}
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open output file: %w", err)
	}

	s := &CSVSink{
		includeFeeStatus: includeFeeStatus,
		file:             file,
		writer:           bufio.NewWriter(file),
	}
	if err := s.writeLine(Header(includeFeeStatus)); err != nil {
		file.Close()
		return nil, fmt.Errorf("write header: %w", err)
	}
	if err := s.writer.Flush(); err != nil {
		file.Close()
		return nil, fmt.Errorf("flush header: %w", err)
	}
	return s, nil
}

// Rows returns the number of data rows written so far.
func (s *CSVSink) Rows() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rows
}

// WriteRows appends one page of rows and flushes it to disk.
func (s *CSVSink) WriteRows(_ context.Context, rows []model.OutputRow) error {
	if len(rows) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file == nil {
		return fmt.Errorf("csv sink is closed")
	}
	for _, row := range rows {
		if err := s.writeLine(s.fields(row)); err != nil {
			return fmt.Errorf("write row %s: %w", row.Hash, err)
		}
	}
	if err := s.writer.Flush(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}
	s.rows += len(rows)
	return nil
}

func (s *CSVSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file == nil {
		return nil
	}
	flushErr := s.writer.Flush()
	closeErr := s.file.Close()
	s.file = nil
	if flushErr != nil {
		return fmt.Errorf("flush output: %w", flushErr)
	}
	return closeErr
}

func (s *CSVSink) fields(row model.OutputRow) []string {
	fields := []string{
		row.Hash,
		row.Timestamp,
		row.From,
		row.To,
		row.Type,
		row.ContractAddress,
		row.Asset,
		row.TokenID,
		row.Amount,
		row.Fee,
	}
	if s.includeFeeStatus {
		fields = append(fields, string(row.FeeStatus))
	}
	return fields
}

func (s *CSVSink) writeLine(fields []string) error {
	for i, field := range fields {
		if i > 0 {
			if err := s.writer.WriteByte(','); err != nil {
				return err
			}
		}
		if _, err := s.writer.WriteString(EscapeField(field)); err != nil {
			return err
		}
	}
	return s.writer.WriteByte('\n')
}

// EscapeField quotes a field that contains a comma, quote, or line break,
// doubling inner quotes. Other fields are written as is.
func EscapeField(field string) string {
	if !strings.ContainsAny(field, ",\"\n\r") {
		return field
	}
	return `"` + strings.ReplaceAll(field, `"`, `""`) + `"`
}
