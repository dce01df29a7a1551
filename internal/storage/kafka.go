package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/IBM/sarama"

	"walletExport/internal/model"
)

// RowEnvelopeType tags row messages on the topic.
const RowEnvelopeType = "wallet_transfer_row"

// Envelope wraps one row on the Kafka topic.
type Envelope struct {
	Type   string          `json:"type"`
	TS     int64           `json:"ts"`
	RunID  string          `json:"run_id"`
	Wallet string          `json:"wallet"`
	Data   json.RawMessage `json:"data"`
}

type kafkaRow struct {
	TransferID      string `json:"transfer_id"`
	Index           int    `json:"index"`
	Hash            string `json:"hash"`
	Timestamp       string `json:"timestamp"`
	From            string `json:"from"`
	To              string `json:"to"`
	Type            string `json:"type"`
	ContractAddress string `json:"contract_address,omitempty"`
	Asset           string `json:"asset,omitempty"`
	TokenID         string `json:"token_id,omitempty"`
	Amount          string `json:"amount"`
	Fee             string `json:"fee"`
	FeeStatus       string `json:"fee_status"`
}

// KafkaSink mirrors rows to a Kafka topic keyed by transaction hash.
type KafkaSink struct {
	topic  string
	runID  string
	wallet string
	p      sarama.SyncProducer
	now    func() time.Time
}

// NewKafkaSink dials brokers with a synchronous producer.
func NewKafkaSink(brokers []string, topic, runID, wallet string, cfg *sarama.Config) (*KafkaSink, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("kafka brokers are required")
	}
	if cfg == nil {
		cfg = sarama.NewConfig()
		cfg.Producer.RequiredAcks = sarama.WaitForAll
		cfg.Producer.Retry.Max = 5
		cfg.Producer.Idempotent = false
	}
	cfg.Producer.Return.Successes = true
	cfg.Producer.Return.Errors = true

	p, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return NewKafkaSinkWithProducer(p, topic, runID, wallet), nil
}

// NewKafkaSinkWithProducer wraps an existing producer.
func NewKafkaSinkWithProducer(p sarama.SyncProducer, topic, runID, wallet string) *KafkaSink {
	return &KafkaSink{
		topic:  topic,
		runID:  runID,
		wallet: strings.ToLower(wallet),
		p:      p,
		now:    time.Now,
	}
}

func (s *KafkaSink) Close() error {
	if s.p != nil {
		return s.p.Close()
	}
	return nil
}

// WriteRows sends one message per row as a single batch.
func (s *KafkaSink) WriteRows(_ context.Context, rows []model.OutputRow) error {
	if len(rows) == 0 {
		return nil
	}
	ts := s.now().UnixMilli()
	msgs := make([]*sarama.ProducerMessage, 0, len(rows))
	for _, row := range rows {
		data, err := json.Marshal(kafkaRow{
			TransferID:      row.TransferID,
			Index:           row.Index,
			Hash:            row.Hash,
			Timestamp:       row.Timestamp,
			From:            row.From,
			To:              row.To,
			Type:            row.Type,
			ContractAddress: row.ContractAddress,
			Asset:           row.Asset,
			TokenID:         row.TokenID,
			Amount:          row.Amount,
			Fee:             row.Fee,
			FeeStatus:       string(row.FeeStatus),
		})
		if err != nil {
			return fmt.Errorf("marshal row %s: %w", row.Hash, err)
		}
		b, err := json.Marshal(Envelope{
			Type:   RowEnvelopeType,
			TS:     ts,
			RunID:  s.runID,
			Wallet: s.wallet,
			Data:   data,
		})
		if err != nil {
			return fmt.Errorf("marshal envelope: %w", err)
		}
		msgs = append(msgs, &sarama.ProducerMessage{
			Topic: s.topic,
			Key:   sarama.StringEncoder(row.Hash),
			Value: sarama.ByteEncoder(b),
		})
	}
	if err := s.p.SendMessages(msgs); err != nil {
		return fmt.Errorf("kafka emit failed: %w", err)
	}
	return nil
}
