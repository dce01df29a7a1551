package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"

	"walletExport/internal/model"
)

func producerConfig() *sarama.Config {
	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	return cfg
}

func TestKafkaSinkEnvelope(t *testing.T) {
	producer := mocks.NewSyncProducer(t, producerConfig())
	producer.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		var env Envelope
		if err := json.Unmarshal(val, &env); err != nil {
			return err
		}
		if env.Type != RowEnvelopeType || env.RunID != "run-1" || env.Wallet != "0xabc" || env.TS != 1700000000000 {
			return fmt.Errorf("unexpected envelope: %+v", env)
		}
		var row kafkaRow
		if err := json.Unmarshal(env.Data, &row); err != nil {
			return err
		}
		if row.Hash != "0x1" || row.Fee != "0.000021" || row.FeeStatus != "resolved" {
			return fmt.Errorf("unexpected row: %+v", row)
		}
		return nil
	})
	producer.ExpectSendMessageAndSucceed()

	sink := NewKafkaSinkWithProducer(producer, "wallet.transfers", "run-1", "0xABC")
	sink.now = func() time.Time { return time.UnixMilli(1700000000000) }

	rows := []model.OutputRow{sampleRow("0x1"), sampleRow("0x2")}
	if err := sink.WriteRows(context.Background(), rows); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := sink.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestKafkaSinkSendFailure(t *testing.T) {
	producer := mocks.NewSyncProducer(t, producerConfig())
	producer.ExpectSendMessageAndFail(fmt.Errorf("leader not available"))

	sink := NewKafkaSinkWithProducer(producer, "wallet.transfers", "run-1", "0xabc")
	if err := sink.WriteRows(context.Background(), []model.OutputRow{sampleRow("0x1")}); err == nil {
		t.Fatalf("expected send failure")
	}
	_ = sink.Close()
}

func TestNewKafkaSinkRequiresBrokers(t *testing.T) {
	if _, err := NewKafkaSink(nil, "t", "run", "0xabc", nil); err == nil {
		t.Fatalf("expected error without brokers")
	}
}
