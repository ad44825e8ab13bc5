// Package audit records admin actions (stat corrections, bans, reward
// grants) asynchronously so the request path never waits on the audit
// table.
package audit

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/mcladder/bedboard/model"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	queueSize     = 1024
	batchSize     = 100
	flushInterval = 2 * time.Second
)

// AuditEntry is one event to record. Request and Response are
// serialized to JSON columns as-is.
type AuditEntry struct {
	TraceID    string
	PlayerID   *int64
	AccountID  *int64
	Nickname   string
	Action     string
	Request    interface{}
	Response   interface{}
	Error      string
	IP         string
	DurationMs int
}

func (e AuditEntry) record() *model.AuditLog {
	reqJSON, _ := json.Marshal(e.Request)
	respJSON, _ := json.Marshal(e.Response)
	return &model.AuditLog{
		TraceID:    e.TraceID,
		PlayerID:   e.PlayerID,
		AccountID:  e.AccountID,
		Nickname:   e.Nickname,
		Action:     e.Action,
		Request:    datatypes.JSON(reqJSON),
		Response:   datatypes.JSON(respJSON),
		Error:      e.Error,
		IP:         e.IP,
		DurationMs: e.DurationMs,
	}
}

// Service buffers entries on a channel and writes them in batches from
// a single background worker.
type Service struct {
	db      *gorm.DB
	queue   chan *model.AuditLog
	logger  *zap.Logger
	stopCh  chan struct{}
	stopped sync.Once
	wg      sync.WaitGroup
}

// New starts the background writer.
func New(db *gorm.DB, logger *zap.Logger) *Service {
	svc := &Service{
		db:     db,
		queue:  make(chan *model.AuditLog, queueSize),
		logger: logger,
		stopCh: make(chan struct{}),
	}
	svc.wg.Add(1)
	go svc.worker()
	return svc
}

// Log enqueues an entry. When the queue is full the entry is dropped
// with a warning rather than blocking the caller.
func (svc *Service) Log(entry AuditEntry) {
	select {
	case svc.queue <- entry.record():
	default:
		svc.logger.Warn("audit queue full, dropping entry",
			zap.String("action", entry.Action))
	}
}

// Stop flushes queued entries and waits for the worker to exit.
func (svc *Service) Stop(_ context.Context) {
	svc.stopped.Do(func() { close(svc.stopCh) })
	svc.wg.Wait()
}

func (svc *Service) worker() {
	defer svc.wg.Done()
	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()

	batch := make([]*model.AuditLog, 0, batchSize)
	for {
		select {
		case rec := <-svc.queue:
			batch = append(batch, rec)
			if len(batch) >= batchSize {
				batch = svc.flush(batch)
			}
		case <-ticker.C:
			batch = svc.flush(batch)
		case <-svc.stopCh:
			svc.flush(svc.drain(batch))
			return
		}
	}
}

func (svc *Service) flush(batch []*model.AuditLog) []*model.AuditLog {
	if len(batch) == 0 {
		return batch
	}
	if err := svc.db.Create(&batch).Error; err != nil {
		svc.logger.Error("audit batch write failed",
			zap.Error(err), zap.Int("entries", len(batch)))
	}
	return batch[:0]
}

func (svc *Service) drain(batch []*model.AuditLog) []*model.AuditLog {
	for {
		select {
		case rec := <-svc.queue:
			batch = append(batch, rec)
		default:
			return batch
		}
	}
}
