package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"walletExport/internal/model"
)

func sampleRow(hash string) model.OutputRow {
	return model.OutputRow{
		Hash:      hash,
		Timestamp: "2024-01-01T00:00:00.000Z",
		From:      "0xaaa",
		To:        "0xbbb",
		Type:      "ETH transfer",
		Asset:     "ETH",
		Amount:    "1",
		Fee:       "0.000021",
		FeeStatus: model.FeeResolved,
	}
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	return strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
}

func TestEscapeField(t *testing.T) {
	cases := map[string]string{
		`Foo, "Bar"`: `"Foo, ""Bar"""`,
		"plain":      "plain",
		" leading":   " leading",
		"line\nfeed": "\"line\nfeed\"",
		"cr\r":       "\"cr\r\"",
		"":           "",
	}
	for in, want := range cases {
		if got := EscapeField(in); got != want {
			t.Fatalf("EscapeField(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCSVSinkHeaderAndRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out.csv")
	sink, err := NewCSVSink(path, false)
	if err != nil {
		t.Fatalf("new sink: %v", err)
	}

	lines := readLines(t, path)
	wantHeader := "Transaction Hash,Date & Time,From Address,To Address,Transaction Type,Asset Contract Address,Asset Symbol/Name,Token ID,Value/Amount,Gas Fee"
	if len(lines) != 1 || lines[0] != wantHeader {
		t.Fatalf("header not written at construction: %q", lines)
	}

	row := sampleRow("0x1")
	row.Asset = `Foo, "Bar"`
	if err := sink.WriteRows(context.Background(), []model.OutputRow{row}); err != nil {
		t.Fatalf("write: %v", err)
	}

	// flushed without Close
	lines = readLines(t, path)
	if len(lines) != 2 {
		t.Fatalf("expected page flushed, got %d lines", len(lines))
	}
	want := `0x1,2024-01-01T00:00:00.000Z,0xaaa,0xbbb,ETH transfer,,"Foo, ""Bar""",,1,0.000021`
	if lines[1] != want {
		t.Fatalf("row mismatch:\n got %s\nwant %s", lines[1], want)
	}
	if sink.Rows() != 1 {
		t.Fatalf("rows = %d", sink.Rows())
	}
	if err := sink.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := sink.WriteRows(context.Background(), []model.OutputRow{row}); err == nil {
		t.Fatalf("write after close should fail")
	}
}

func TestCSVSinkFeeStatusColumnAndTruncate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	if err := os.WriteFile(path, []byte("stale\nstale\nstale\n"), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}
	sink, err := NewCSVSink(path, true)
	if err != nil {
		t.Fatalf("new sink: %v", err)
	}
	row := sampleRow("0x2")
	row.Fee = "0"
	row.FeeStatus = model.FeeUnresolved
	if err := sink.WriteRows(context.Background(), []model.OutputRow{row}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := sink.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	lines := readLines(t, path)
	if len(lines) != 2 {
		t.Fatalf("file not truncated: %q", lines)
	}
	if !strings.HasSuffix(lines[0], ",Gas Fee,Fee Status") {
		t.Fatalf("fee status header missing: %s", lines[0])
	}
	if !strings.HasSuffix(lines[1], ",0,unresolved") {
		t.Fatalf("fee status value missing: %s", lines[1])
	}
}

type recordingSink struct {
	name   string
	log    *[]string
	err    error
	closed bool
}

func (s *recordingSink) WriteRows(_ context.Context, rows []model.OutputRow) error {
	*s.log = append(*s.log, s.name)
	return s.err
}

func (s *recordingSink) Close() error {
	s.closed = true
	return s.err
}

func TestMultiSinkOrderAndErrors(t *testing.T) {
	var log []string
	first := &recordingSink{name: "csv", log: &log}
	failing := &recordingSink{name: "kafka", log: &log, err: errors.New("broker down")}
	last := &recordingSink{name: "pg", log: &log}

	multi := NewMultiSink(first, nil, failing, last)
	err := multi.WriteRows(context.Background(), []model.OutputRow{sampleRow("0x1")})
	if err == nil {
		t.Fatalf("expected error from failing sink")
	}
	if strings.Join(log, ",") != "csv,kafka" {
		t.Fatalf("unexpected write order: %v", log)
	}

	if err := multi.WriteRows(context.Background(), nil); err != nil {
		t.Fatalf("empty page should be a no-op: %v", err)
	}

	if err := multi.Close(); err == nil {
		t.Fatalf("close should surface sink errors")
	}
	if !first.closed || !failing.closed || !last.closed {
		t.Fatalf("all sinks should be closed")
	}
}
