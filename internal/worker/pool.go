package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gonza-rom/jmr-stock-sub000/internal/model"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	QueueAlertas = "jobs:alertas"
	QueueEmail   = "jobs:email"

	JobAlertaStock = "alerta_stock"
	JobEmail       = "email"

	// MaxAttempts is how many times a job runs before it goes to the DLQ.
	MaxAttempts = 3

	popTimeout = 5 * time.Second
)

// ErrEmpty is returned by Queue.Pop when the wait times out.
var ErrEmpty = errors.New("queue: empty")

// ErrQueueDisabled is returned when jobs are enqueued without Redis.
var ErrQueueDisabled = errors.New("queue: redis not configured")

// Job is the generic envelope for all async tasks.
type Job struct {
	Type     string          `json:"type"`
	Payload  json.RawMessage `json:"payload"`
	Attempts int             `json:"attempts"`
}

// Queue is the list transport the pool consumes.
type Queue interface {
	Push(ctx context.Context, queue string, data []byte) error
	// Pop blocks up to timeout and returns ErrEmpty when nothing arrived.
	Pop(ctx context.Context, timeout time.Duration, queues ...string) (queue string, data []byte, err error)
	Len(ctx context.Context, queue string) (int64, error)
}

type redisQueue struct{ rdb *redis.Client }

// NewRedisQueue uses LPUSH / BRPOP, so each list is FIFO.
func NewRedisQueue(rdb *redis.Client) Queue { return &redisQueue{rdb: rdb} }

func (q *redisQueue) Push(ctx context.Context, queue string, data []byte) error {
	return q.rdb.LPush(ctx, queue, data).Err()
}

func (q *redisQueue) Pop(ctx context.Context, timeout time.Duration, queues ...string) (string, []byte, error) {
	res, err := q.rdb.BRPop(ctx, timeout, queues...).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil, ErrEmpty
	}
	if err != nil {
		return "", nil, err
	}
	if len(res) < 2 {
		return "", nil, ErrEmpty
	}
	return res[0], []byte(res[1]), nil
}

func (q *redisQueue) Len(ctx context.Context, queue string) (int64, error) {
	return q.rdb.LLen(ctx, queue).Result()
}

// ── Dispatcher ────────────────────────────────────────────────────────────────

// Dispatcher enqueues async jobs. A nil Dispatcher, or one without a queue,
// drops stock alerts with a log line and rejects emails with ErrQueueDisabled.
type Dispatcher struct {
	q Queue
}

func NewDispatcher(q Queue) *Dispatcher {
	return &Dispatcher{q: q}
}

func (d *Dispatcher) enabled() bool { return d != nil && d.q != nil }

// EnqueueEmail pushes an email job.
func (d *Dispatcher) EnqueueEmail(ctx context.Context, to []string, subject, body string) error {
	if !d.enabled() {
		return ErrQueueDisabled
	}
	return d.enqueue(ctx, QueueEmail, JobEmail, EmailJobPayload{To: to, Subject: subject, Body: body})
}

// AlertaStockBajo enqueues a low-stock notification. It never fails the caller.
func (d *Dispatcher) AlertaStockBajo(ctx context.Context, p model.Producto) {
	if !d.enabled() {
		log.Warn().Str("producto", p.Nombre).Int("stock", p.Stock).Msg("stock bajo (cola deshabilitada)")
		return
	}
	payload := AlertaStockPayload{
		ProductoID:  p.ID.String(),
		Nombre:      p.Nombre,
		Stock:       p.Stock,
		StockMinimo: p.StockMinimo,
	}
	if p.Codigo != nil {
		payload.Codigo = *p.Codigo
	}
	if err := d.enqueue(ctx, QueueAlertas, JobAlertaStock, payload); err != nil {
		log.Error().Err(err).Str("producto", p.Nombre).Msg("no se pudo encolar la alerta de stock")
	}
}

func (d *Dispatcher) enqueue(ctx context.Context, queue, jobType string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	encoded, err := json.Marshal(Job{Type: jobType, Payload: data})
	if err != nil {
		return err
	}
	return d.q.Push(ctx, queue, encoded)
}

// ── Pool ──────────────────────────────────────────────────────────────────────

// JobHandler processes one job payload. A returned error schedules a retry.
type JobHandler interface {
	Handle(ctx context.Context, payload json.RawMessage) error
}

// Pool runs a fixed number of goroutines consuming every registered queue.
type Pool struct {
	q        Queue
	size     int
	queues   []string
	handlers map[string]JobHandler
	wg       sync.WaitGroup
}

func NewPool(q Queue, size int) *Pool {
	if size < 1 {
		size = 1
	}
	return &Pool{q: q, size: size, handlers: map[string]JobHandler{}}
}

// Register binds a job type to its handler and subscribes to queue.
func (p *Pool) Register(queue, jobType string, h JobHandler) {
	p.handlers[jobType] = h
	for _, q := range p.queues {
		if q == queue {
			return
		}
	}
	p.queues = append(p.queues, queue)
}

// Start launches the workers. They exit when ctx is cancelled; Wait blocks
// until they have.
func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.size; i++ {
		p.wg.Add(1)
		go p.run(ctx, i)
	}
	log.Info().Int("workers", p.size).Strs("queues", p.queues).Msg("worker pool started")
}

func (p *Pool) Wait() { p.wg.Wait() }

func (p *Pool) run(ctx context.Context, id int) {
	defer p.wg.Done()
	for {
		if ctx.Err() != nil {
			log.Info().Int("worker", id).Msg("worker shutting down")
			return
		}
		queue, raw, err := p.q.Pop(ctx, popTimeout, p.queues...)
		if err != nil {
			if !errors.Is(err, ErrEmpty) && ctx.Err() == nil {
				log.Error().Err(err).Int("worker", id).Msg("queue pop failed")
				time.Sleep(time.Second)
			}
			continue
		}
		p.process(ctx, queue, raw)
	}
}

// process runs one job and re-queues or dead-letters it on failure.
func (p *Pool) process(ctx context.Context, queue string, raw []byte) {
	var job Job
	if err := json.Unmarshal(raw, &job); err != nil {
		log.Error().Str("queue", queue).Err(err).Msg("failed to unmarshal job")
		SendToDLQ(ctx, p.q, queue, "", raw, "invalid envelope: "+err.Error(), 0)
		return
	}
	h, ok := p.handlers[job.Type]
	if !ok {
		SendToDLQ(ctx, p.q, queue, job.Type, job.Payload, "no handler for job type", job.Attempts)
		return
	}

	job.Attempts++
	err := h.Handle(ctx, job.Payload)
	if err == nil {
		log.Debug().Str("type", job.Type).Int("attempt", job.Attempts).Msg("job done")
		return
	}
	if job.Attempts >= MaxAttempts {
		SendToDLQ(ctx, p.q, queue, job.Type, job.Payload,
			fmt.Sprintf("max attempts (%d) exceeded: %s", MaxAttempts, err), job.Attempts)
		return
	}
	log.Warn().Err(err).Str("type", job.Type).Int("attempt", job.Attempts).Msg("job failed, re-queued")
	encoded, mErr := json.Marshal(job)
	if mErr != nil {
		return
	}
	if pErr := p.q.Push(ctx, queue, encoded); pErr != nil {
		log.Error().Err(pErr).Str("queue", queue).Msg("re-queue failed")
	}
}
