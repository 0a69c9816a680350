package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"hub-helio-backend/internal/models"
	"hub-helio-backend/internal/views"
)

const (
	popTimeout        = 30 * time.Second
	lockTTL           = 10 * time.Minute
	defaultMaxRetries = 3
)

// jobQueue is the slice of *redis.Client the pool uses.
type jobQueue interface {
	BLPop(ctx context.Context, timeout time.Duration, keys ...string) *redis.StringSliceCmd
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	LPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
}

type jobStatusStore interface {
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	UpdateError(ctx context.Context, id uuid.UUID, errMsg string, retryCount int) error
}

// Processor runs one job type.
type Processor interface {
	Process(ctx context.Context, job *models.Job, progress func(step int, name string)) error
}

type notifier interface {
	PublishUpdate(ctx context.Context, userID uuid.UUID, msg models.WSMessage) error
	Invalidate(ctx context.Context, userID uuid.UUID, set views.Set)
}

type handler struct {
	processor Processor
	result    string
	views     views.Set
}

type Pool struct {
	queue       jobQueue
	jobs        jobStatusStore
	notify      notifier
	handlers    map[string]handler
	workerCount int

	backoff func(retry int) time.Duration
	after   func(d time.Duration, f func())

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewPool(queue jobQueue, jobs jobStatusStore, notify notifier, workerCount int) *Pool {
	if workerCount <= 0 {
		workerCount = 1
	}
	return &Pool{
		queue:       queue,
		jobs:        jobs,
		notify:      notify,
		handlers:    make(map[string]handler),
		workerCount: workerCount,
		backoff: func(retry int) time.Duration {
			return time.Duration(1<<uint(retry)) * time.Second
		},
		after: func(d time.Duration, f func()) { time.AfterFunc(d, f) },
	}
}

// Register routes jobType to p. On success the user is told resultType and
// the views in set are invalidated.
func (p *Pool) Register(jobType string, proc Processor, resultType string, set views.Set) {
	p.handlers[jobType] = handler{processor: proc, result: resultType, views: set}
}

func (p *Pool) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel

	queues := make([]string, 0, len(p.handlers))
	for jobType := range p.handlers {
		queues = append(queues, models.QueueName(jobType))
	}

	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go p.worker(ctx, i, queues)
	}

	log.Printf("Started %d worker goroutines on %v", p.workerCount, queues)
}

// Stop cancels pending pops and waits for in-flight jobs.
func (p *Pool) Stop() {
	if p.cancel == nil {
		return
	}
	p.cancel()
	p.wg.Wait()
}

func (p *Pool) worker(ctx context.Context, id int, queues []string) {
	defer p.wg.Done()
	for {
		if ctx.Err() != nil {
			log.Printf("Worker %d shutting down", id)
			return
		}

		result, err := p.queue.BLPop(ctx, popTimeout, queues...).Result()
		if err != nil {
			if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
				log.Printf("Worker %d: queue error: %v", id, err)
				time.Sleep(time.Second)
			}
			continue
		}
		if len(result) < 2 {
			continue
		}

		// finish the job even if shutdown starts mid-way
		p.handle(context.WithoutCancel(ctx), id, result[1])
	}
}

func (p *Pool) handle(ctx context.Context, workerID int, payload string) {
	var job models.Job
	if err := json.Unmarshal([]byte(payload), &job); err != nil {
		log.Printf("Worker %d: failed to parse job: %v", workerID, err)
		return
	}

	lockKey := fmt.Sprintf("job_lock:%s", job.ID.String())
	locked, err := p.queue.SetNX(ctx, lockKey, "1", lockTTL).Result()
	if err != nil || !locked {
		return // another worker has this job
	}
	defer p.queue.Del(ctx, lockKey)

	log.Printf("Worker %d: processing job %s (type: %s)", workerID, job.ID, job.Type)

	p.jobs.UpdateStatus(ctx, job.ID, "processing")
	progress := func(step int, name string) {
		p.notify.PublishUpdate(ctx, job.UserID, models.WSMessage{
			Type:    "status_update",
			Payload: models.StatusUpdate{JobID: job.ID, Step: step, StepName: name},
		})
	}
	progress(1, "Preparando")

	h, ok := p.handlers[job.Type]
	if !ok {
		p.handleFailure(ctx, &job, fmt.Errorf("unknown job type: %s", job.Type), true)
		return
	}

	if err := h.processor.Process(ctx, &job, progress); err != nil {
		p.handleFailure(ctx, &job, err, false)
		return
	}
	p.handleSuccess(ctx, &job, h)
}

func (p *Pool) handleSuccess(ctx context.Context, job *models.Job, h handler) {
	p.jobs.UpdateStatus(ctx, job.ID, "completed")

	p.notify.Invalidate(ctx, job.UserID, h.views)
	p.notify.PublishUpdate(ctx, job.UserID, models.WSMessage{
		Type: "completed",
		Payload: models.CompletedEvent{
			JobID:      job.ID,
			ResultID:   job.ReferenceID,
			ResultType: h.result,
		},
	})

	log.Printf("Job %s completed successfully", job.ID)
}

func (p *Pool) handleFailure(ctx context.Context, job *models.Job, err error, permanent bool) {
	job.RetryCount++
	errMsg := err.Error()

	maxRetries := job.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	if !permanent && job.RetryCount < maxRetries {
		log.Printf("Job %s failed (attempt %d): %s, retrying", job.ID, job.RetryCount, errMsg)
		p.jobs.UpdateStatus(ctx, job.ID, "pending")
		p.jobs.UpdateError(ctx, job.ID, errMsg, job.RetryCount)

		jobBytes, _ := json.Marshal(job)
		queue := models.QueueName(job.Type)
		p.after(p.backoff(job.RetryCount), func() {
			if err := p.queue.LPush(context.Background(), queue, string(jobBytes)).Err(); err != nil {
				log.Printf("Job %s could not be re-queued: %v", job.ID, err)
			}
		})
		return
	}

	log.Printf("Job %s failed permanently: %s", job.ID, errMsg)
	p.jobs.UpdateStatus(ctx, job.ID, "failed")
	p.jobs.UpdateError(ctx, job.ID, errMsg, job.RetryCount)

	p.notify.PublishUpdate(ctx, job.UserID, models.WSMessage{
		Type: "error",
		Payload: models.ErrorEvent{
			JobID:        job.ID,
			ErrorCode:    "JOB_FAILED",
			ErrorMessage: "Não foi possível concluir a tarefa",
		},
	})
}
