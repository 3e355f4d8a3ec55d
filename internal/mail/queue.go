package mail

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/pribylovaa/techblog/internal/pkg/redact"
)

const (
	// TaskSend - тип задачи отправки одного письма.
	TaskSend = "mail:send"
	// QueueName - очередь asynq для писем.
	QueueName = "mail"

	maxRetry = 3
)

// Queue ставит письма в очередь asynq и обрабатывает их воркером.
type Queue struct {
	client *asynq.Client
	server *asynq.Server
	mux    *asynq.ServeMux
	sender Sender
	log    *slog.Logger
}

// NewQueue создаёт клиента и сервер asynq по redis URL.
func NewQueue(redisURL string, sender Sender, log *slog.Logger) (*Queue, error) {
	if sender == nil {
		return nil, errors.New("mail: sender is nil")
	}

	if log == nil {
		log = slog.Default()
	}

	opt, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return nil, fmt.Errorf("mail: failed to parse redis url: %w", err)
	}

	q := &Queue{
		client: asynq.NewClient(opt),
		server: asynq.NewServer(opt, asynq.Config{
			Concurrency: 2,
			Queues:      map[string]int{QueueName: 1},
		}),
		mux:    asynq.NewServeMux(),
		sender: sender,
		log:    log,
	}
	q.mux.HandleFunc(TaskSend, q.handleSend)

	return q, nil
}

// Dispatch ставит каждое письмо отдельной задачей.
func (q *Queue) Dispatch(ctx context.Context, msgs ...Message) error {
	const op = "mail.Queue.Dispatch"

	for _, m := range msgs {
		task, err := newSendTask(m)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}

		info, err := q.client.EnqueueContext(ctx, task)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}

		q.log.Debug("mail_enqueued",
			slog.String("task_id", info.ID),
			slog.String("to", redact.Email(m.To)),
		)
	}

	return nil
}

// Run запускает воркер и блокируется до Shutdown.
func (q *Queue) Run() error {
	if err := q.server.Run(q.mux); err != nil && !errors.Is(err, asynq.ErrServerClosed) {
		return err
	}

	return nil
}

// Shutdown останавливает воркер и закрывает клиента.
func (q *Queue) Shutdown() {
	q.server.Shutdown()
	_ = q.client.Close()
}

func newSendTask(m Message) (*asynq.Task, error) {
	body, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(TaskSend, body, asynq.Queue(QueueName), asynq.MaxRetry(maxRetry)), nil
}

func (q *Queue) handleSend(ctx context.Context, task *asynq.Task) error {
	var m Message
	if err := json.Unmarshal(task.Payload(), &m); err != nil {
		// Битый payload повторять бессмысленно.
		return fmt.Errorf("mail: decode payload: %v: %w", err, asynq.SkipRetry)
	}

	if err := q.sender.Send(ctx, m); err != nil {
		q.log.Warn("mail_send_failed",
			slog.String("to", redact.Email(m.To)),
			slog.String("err", err.Error()),
		)
		return err
	}

	q.log.Info("mail_sent", slog.String("to", redact.Email(m.To)))

	return nil
}
