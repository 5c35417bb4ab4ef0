package queue

import (
	"context"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	"github.com/agrosense/irrigation-server/internal/protocol"
	"github.com/agrosense/irrigation-server/internal/store"
)

// BatchWriter consumes reading messages from Kafka and batch-writes
// them to Postgres.
type BatchWriter struct {
	consumer      *Consumer
	db            *store.DB
	batchSize     int
	flushInterval time.Duration
	log           *logrus.Entry
	stopCh        chan struct{}
	wg            sync.WaitGroup
}

// NewBatchWriter creates a new batch writer
func NewBatchWriter(consumer *Consumer, db *store.DB, batchSize int, flushInterval time.Duration, log *logrus.Logger) *BatchWriter {
	return &BatchWriter{
		consumer:      consumer,
		db:            db,
		batchSize:     batchSize,
		flushInterval: flushInterval,
		log:           log.WithField("component", "batch-writer"),
		stopCh:        make(chan struct{}),
	}
}

// Start begins consuming and writing to the database
func (bw *BatchWriter) Start(ctx context.Context) error {
	bw.wg.Add(1)
	go bw.run(ctx)
	return nil
}

// Stop stops the batch writer gracefully
func (bw *BatchWriter) Stop() {
	close(bw.stopCh)
	bw.wg.Wait()
}

func (bw *BatchWriter) run(ctx context.Context) {
	defer bw.wg.Done()

	var batch []kafka.Message
	ticker := time.NewTicker(bw.flushInterval)
	defer ticker.Stop()

	msgChan := make(chan kafka.Message, 10)
	go func() {
		for {
			msg, err := bw.consumer.Consume(ctx)
			if err != nil {
				bw.log.WithError(err).Warn("Consumer error")
				continue
			}
			msgChan <- msg
		}
	}()

	for {
		select {
		case <-bw.stopCh:
			// Flush remaining batch before stopping
			if len(batch) > 0 {
				bw.flush(ctx, batch)
			}
			return

		case <-ticker.C:
			if len(batch) > 0 {
				bw.flush(ctx, batch)
				batch = nil
			}

		case msg := <-msgChan:
			batch = append(batch, msg)
			if len(batch) >= bw.batchSize {
				bw.flush(ctx, batch)
				batch = nil
			}
		}
	}
}

func (bw *BatchWriter) flush(ctx context.Context, batch []kafka.Message) {
	if len(batch) == 0 {
		return
	}

	successCount := 0
	for _, msg := range batch {
		if err := bw.processMessage(msg); err != nil {
			bw.log.WithError(err).Warn("Failed to process message")
			continue
		}
		successCount++

		// Commit offset after successful processing
		if err := bw.consumer.Commit(ctx, msg); err != nil {
			bw.log.WithError(err).Warn("Failed to commit offset")
		}
	}

	bw.log.WithField("count", successCount).Debug("Flushed batch to database")
}

func (bw *BatchWriter) processMessage(msg kafka.Message) error {
	readingMsg, err := protocol.DecodeReadingMessage(msg.Value)
	if err != nil {
		return err
	}

	ts, err := time.Parse(time.RFC3339, readingMsg.Data.Timestamp)
	if err != nil {
		return err
	}

	// Ensure the field exists
	field, err := bw.db.GetField(readingMsg.FieldID)
	if err != nil {
		return err
	}
	if field == nil {
		newField := &store.Field{
			FieldID: readingMsg.FieldID,
			Farm:    readingMsg.Farm,
		}
		if err := bw.db.UpsertField(newField); err != nil {
			return err
		}
	}

	row := &store.SoilReadingRow{
		FieldID:      readingMsg.FieldID,
		Timestamp:    ts,
		Moisture1:    valueOrZero(readingMsg.Data.Moisture1),
		Moisture2:    valueOrZero(readingMsg.Data.Moisture2),
		Temperature:  readingMsg.Data.Temperature,
		Humidity:     readingMsg.Data.Humidity,
		BatteryLevel: readingMsg.Data.BatteryLevel,
		ReceivedAt:   readingMsg.ReceivedAt,
	}

	return bw.db.InsertSoilReading(row)
}

func valueOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
