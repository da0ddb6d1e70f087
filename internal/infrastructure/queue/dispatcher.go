package queue

import (
	"context"
	"hash/fnv"

	"github.com/rs/zerolog"

	"github.com/opsdeck/platform/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
)

// Dispatcher routes CRM sync jobs to a fixed set of workers using consistent
// hashing on the entity identifier, guaranteeing per-entity delivery order.
type Dispatcher struct {
	workers []chan ports.SyncJob
	service ports.SyncService
	log     zerolog.Logger
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, service ports.SyncService, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan ports.SyncJob, numWorkers),
		service: service,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan ports.SyncJob, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		go d.runWorker(ctx, i, ch)
	}
}

// Enqueue sends a job to the worker responsible for its entity. It reports
// false when the worker's buffer is full; the caller decides whether to log
// or retry. The request path is never blocked.
func (d *Dispatcher) Enqueue(job ports.SyncJob) bool {
	select {
	case d.workers[d.shardIndex(job.EntityID)] <- job:
		return true
	default:
		return false
	}
}

// shardIndex maps an entity identifier deterministically to a worker index.
func (d *Dispatcher) shardIndex(entityID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(entityID))
	return int(h.Sum32()) % len(d.workers)
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan ports.SyncJob) {
	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-ch:
			if !ok {
				return
			}
			if err := d.service.Process(ctx, job); err != nil {
				d.log.Error().Err(err).
					Str("entity_id", job.EntityID).
					Str("op", job.Op).
					Int("worker_id", id).
					Msg("crm sync failed")
			}
		}
	}
}
