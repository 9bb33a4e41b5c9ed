package audit

import (
	"context"
	"time"

	"github.com/yanun0323/logs"

	"main/internal/bus"
	"main/internal/model"
	"main/internal/obs"
	"main/internal/shutdown"
)

const (
	flushInterval = time.Second
	batchSize     = 256
)

// Engine records the indicator stream as an audit trail.
//
// Batches are flushed on a timer or when full; a final flush runs during
// shutdown so no buffered record is lost.
type Engine struct {
	botID       model.BotID
	indicatorRx *bus.Consumer[model.IndicatorEvent]
	store       Store
	metrics     *obs.Metrics
}

// New wires an audit engine over the given store.
func New(botID model.BotID, indicatorRx *bus.Consumer[model.IndicatorEvent], store Store, metrics *obs.Metrics) *Engine {
	if store == nil {
		store = NewMemoryStore(0)
	}
	return &Engine{
		botID:       botID,
		indicatorRx: indicatorRx,
		store:       store,
		metrics:     metrics,
	}
}

func (e *Engine) Name() string {
	return "audit-engine"
}

func (e *Engine) Start(ctx context.Context, sd *shutdown.Shutdown) error {
	defer func() {
		if err := e.store.Close(); err != nil {
			logs.Errorf("close audit store, err: %+v", err)
		}
	}()

	batch := make([]Record, 0, batchSize)
	lastFlush := time.Now()

	for {
		if sd.IsTriggered() || ctx.Err() != nil {
			e.drainInto(&batch)
			e.flush(&batch)
			return nil
		}

		if ev, ok := e.indicatorRx.TryPop(); ok {
			batch = append(batch, e.record(ev))
			e.metrics.IncAuditRecord()
		} else {
			time.Sleep(time.Millisecond)
		}

		if len(batch) >= batchSize || (len(batch) > 0 && time.Since(lastFlush) >= flushInterval) {
			e.flush(&batch)
			lastFlush = time.Now()
		}
	}
}

func (e *Engine) record(ev model.IndicatorEvent) Record {
	return Record{
		BotID:    uint16(e.botID),
		Exchange: ev.Exchange,
		Symbol:   ev.Symbol,
		Kind:     ev.Kind.String(),
		Value:    ev.Value.String(),
		Window:   ev.Window,
		TsNano:   ev.TsNano,
	}
}

// drainInto empties whatever is still queued at shutdown.
func (e *Engine) drainInto(batch *[]Record) {
	for {
		ev, ok := e.indicatorRx.TryPop()
		if !ok {
			return
		}
		*batch = append(*batch, e.record(ev))
		e.metrics.IncAuditRecord()
	}
}

func (e *Engine) flush(batch *[]Record) {
	if len(*batch) == 0 {
		return
	}
	if err := e.store.Append(*batch); err != nil {
		logs.Errorf("flush audit batch, size: %d, err: %+v", len(*batch), err)
	}
	*batch = (*batch)[:0]
}
