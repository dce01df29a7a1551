package storage

import (
	"context"
	"errors"

	"walletExport/internal/model"
)

// Sink receives normalized rows one page at a time.
type Sink interface {
	WriteRows(ctx context.Context, rows []model.OutputRow) error
	Close() error
}

// MultiSink fans each page out to every sink in order. The first failing
// sink aborts the page.
type MultiSink struct {
	sinks []Sink
}

func NewMultiSink(sinks ...Sink) *MultiSink {
	out := make([]Sink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return &MultiSink{sinks: out}
}

func (m *MultiSink) WriteRows(ctx context.Context, rows []model.OutputRow) error {
	if len(rows) == 0 {
		return nil
	}
	for _, s := range m.sinks {
		if err := s.WriteRows(ctx, rows); err != nil {
			return err
		}
	}
	return nil
}

// Close closes every sink and joins their errors.
func (m *MultiSink) Close() error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
