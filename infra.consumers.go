package main

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// retryDelay spaces out pop calls while the queue server is failing.
const retryDelay = time.Second

type Consumer interface {
	Consume(ctx context.Context, qids ...string) error
}

// journalConsumer drains the catalog events queues into the journal.
type journalConsumer struct {
	logger  *zap.Logger
	queue   Queuer
	journal Journal
}

func NewJournalConsumer(logger *zap.Logger, q Queuer, journal Journal) Consumer {
	return &journalConsumer{logger, q, journal}
}

func (jc *journalConsumer) Consume(ctx context.Context, qids ...string) error {
	for {
		qid, event, err := jc.queue.Pop(ctx, qids...)
		if err != nil && ctx.Err() != nil {
			jc.logger.Info("consumer: queue pop call: context is done: exit", zap.String("reason", ctx.Err().Error()))
			return nil
		}

		if errors.Is(err, ErrQueueEmpty) {
			continue
		}

		if err != nil {
			jc.logger.Error("consumer: error on queue pop call", zap.Error(err))
			select {
			case <-ctx.Done():
			case <-time.After(retryDelay):
			}
			continue
		}

		var action string
		switch qid {
		case CreateQueue:
			action = "created"
		case UpdateQueue:
			action = "updated"
		case DeleteQueue:
			action = "deleted"
		default:
			jc.logger.Warn("consumer: received event on unknown queue id", zap.String("qid", qid), zap.Any("event", event))
			continue
		}

		if err = jc.journal.Append(ctx, action, event); err != nil {
			jc.logger.Error("consumer: failed to journal event",
				zap.String("qid", qid),
				zap.String("event.entity", event.Entity),
				zap.String("event.id", event.EntityID),
				zap.Error(err),
			)
		}
	}
}
