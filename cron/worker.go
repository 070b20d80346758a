package cron

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"reserva/config"
	outboxRepo "reserva/database/repository/outbox"
	paymentRepo "reserva/database/repository/payment"
	reservationRepo "reserva/database/repository/reservation"
	"reserva/models"
	"reserva/services/notification"
	"reserva/services/payment"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// taskPayload is the wire form of an outbox entry handed to the task queue.
type taskPayload struct {
	ReservationID string            `json:"reservationId"`
	Payload       map[string]string `json:"payload,omitempty"`
}

// SideEffectWorker owns the at-least-once side-effect pipeline: the drain
// loop moves committed outbox entries into asynq, and the asynq handlers are
// the idempotent consumers. Every handler re-checks reservation state before
// acting, so a stale trigger (for example a payment link requested before a
// cancellation) becomes a no-op.
type SideEffectWorker struct {
	Reservations reservationRepo.ReservationRepository
	Payments     paymentRepo.PaymentRepository
	Outbox       outboxRepo.OutboxRepository
	Gateway      payment.Gateway
	Notifier     notification.Dispatcher
	Logger       *zap.Logger

	client *asynq.Client
}

func redisOpts() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	}
}

// Start launches the asynq server, the outbox drain loop and the redis
// health monitor. It returns immediately; all three run in background.
func (w *SideEffectWorker) Start(ctx context.Context) {
	w.client = asynq.NewClient(redisOpts())

	srv := asynq.NewServer(
		redisOpts(),
		asynq.Config{
			Concurrency: config.AppConfig.WorkerConcurrency,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(string(models.OutboxPaymentLink), w.handlePaymentLink)
	mux.HandleFunc(string(models.OutboxVoucherIssue), w.handleVoucherIssue)
	mux.HandleFunc(string(models.OutboxNotify), w.handleNotify)

	go monitorRedisConnection()
	go w.drainLoop(ctx)

	// Start async worker with retry logic
	go func() {
		log.Println("[SideEffectWorker] starting async worker...")
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			if err := srv.Run(mux); err != nil {
				log.Printf("[SideEffectWorker] attempt %d/%d failed to start worker: %v", attempts, maxAttempts, err)

				if attempts == maxAttempts {
					log.Fatal("[SideEffectWorker] max retry attempts reached. Exiting.")
				}
				time.Sleep(time.Duration(attempts*2) * time.Second)
			} else {
				break
			}
		}
	}()
}

// drainLoop claims committed outbox entries and enqueues them as tasks.
// Entries that fail to enqueue go back to pending for the next pass.
func (w *SideEffectWorker) drainLoop(ctx context.Context) {
	interval := time.Duration(config.AppConfig.OutboxDrainMs) * time.Millisecond
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.drainOnce(ctx)
		}
	}
}

func (w *SideEffectWorker) drainOnce(ctx context.Context) {
	entries, err := w.Outbox.ClaimPending(ctx, 50)
	if err != nil {
		w.Logger.Error("outbox claim failed", zap.Error(err))
	}
	for i := range entries {
		entry := &entries[i]
		body, err := json.Marshal(taskPayload{
			ReservationID: entry.ReservationID,
			Payload:       entry.Payload,
		})
		if err != nil {
			w.Logger.Error("outbox entry marshal failed", zap.String("entry", entry.ID), zap.Error(err))
			continue
		}
		if _, err := w.client.EnqueueContext(ctx, asynq.NewTask(string(entry.Kind), body)); err != nil {
			w.Logger.Error("outbox enqueue failed", zap.String("entry", entry.ID), zap.Error(err))
			if rqErr := w.Outbox.Requeue(ctx, entry.ID); rqErr != nil {
				w.Logger.Error("outbox requeue failed", zap.String("entry", entry.ID), zap.Error(rqErr))
			}
		}
	}
}

// handlePaymentLink creates the checkout link for a priced reservation. The
// status re-check makes a link request stale-proof: if the reservation was
// canceled or paid meanwhile, nothing is created.
func (w *SideEffectWorker) handlePaymentLink(ctx context.Context, task *asynq.Task) error {
	var p taskPayload
	if err := json.Unmarshal(task.Payload(), &p); err != nil {
		w.Logger.Error("invalid payment-link payload", zap.Error(err))
		return err
	}

	res, err := w.Reservations.GetByID(ctx, p.ReservationID)
	if err != nil {
		return err
	}
	if res.Status != models.StatusAwaitingPayment {
		w.Logger.Info("skipping payment link for resolved reservation",
			zap.String("id", res.ID),
			zap.String("status", string(res.Status)),
		)
		return nil
	}

	url, err := w.Gateway.CreatePaymentLink(ctx, res.ID, res.Price.BindingCents(), res.Price.Currency)
	if err != nil {
		// asynq retries the task; the gateway being down never touches the
		// reservation itself.
		return models.NewExternalDependencyError("payment gateway", err)
	}

	return w.Notifier.Notify(ctx, res.CustomerID, "payment_link", map[string]string{
		"url": url,
	})
}

// handleVoucherIssue issues the voucher for a paid reservation, fenced by the
// unique reservation index so redelivery cannot issue a second one.
func (w *SideEffectWorker) handleVoucherIssue(ctx context.Context, task *asynq.Task) error {
	var p taskPayload
	if err := json.Unmarshal(task.Payload(), &p); err != nil {
		w.Logger.Error("invalid voucher payload", zap.Error(err))
		return err
	}

	res, err := w.Reservations.GetByID(ctx, p.ReservationID)
	if err != nil {
		return err
	}
	if res.PaymentStatus != models.PaymentPaid {
		w.Logger.Info("skipping voucher for unpaid reservation", zap.String("id", res.ID))
		return nil
	}

	voucher := &models.Voucher{
		ID:            uuid.New().String(),
		ReservationID: res.ID,
		Code:          "V-" + res.ConfirmationCode,
		IssuedAt:      time.Now().UTC(),
	}
	created, err := w.Payments.IssueVoucher(ctx, voucher)
	if err != nil {
		return err
	}
	if !created {
		w.Logger.Info("voucher already issued", zap.String("reservation", res.ID))
		return nil
	}

	return w.Notifier.Notify(ctx, res.CustomerID, "voucher_issued", map[string]string{
		"voucherCode": voucher.Code,
	})
}

func (w *SideEffectWorker) handleNotify(ctx context.Context, task *asynq.Task) error {
	var p taskPayload
	if err := json.Unmarshal(task.Payload(), &p); err != nil {
		w.Logger.Error("invalid notify payload", zap.Error(err))
		return err
	}

	userID := p.Payload["userId"]
	template := p.Payload["template"]
	if userID == "" || template == "" {
		w.Logger.Warn("notify task missing user or template", zap.String("reservation", p.ReservationID))
		return nil
	}
	if err := w.Notifier.Notify(ctx, userID, template, p.Payload); err != nil {
		w.Logger.Error("notification failed", zap.String("user", userID), zap.Error(err))
		return err
	}
	return nil
}

// monitorRedisConnection pings Redis periodically to detect failures at runtime.
func monitorRedisConnection() {
	client := redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	})

	ctx := context.Background()

	for {
		if err := client.Ping(ctx).Err(); err != nil {
			log.Printf("[SideEffectWorker] redis connection lost: %v", err)
		}
		time.Sleep(10 * time.Second)
	}
}
