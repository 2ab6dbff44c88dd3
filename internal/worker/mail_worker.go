package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gopkg.in/gomail.v2"

	"github.com/knighthoot/backend/internal/config"
	"github.com/knighthoot/backend/internal/model"
)

const (
	MailPollTimeout = 1 * time.Second
	MailMaxAttempts = 3
)

// MailWorker drains the outbound mail queue and delivers over SMTP. Mail is
// queued instead of sent inline so a slow SMTP server never stalls a request
// handler; OTP mails are the only traffic today.
type MailWorker struct {
	cfg    *config.Config
	rdb    *redis.Client
	log    zerolog.Logger
	dialer *gomail.Dialer
}

// NewMailWorker creates a new MailWorker.
func NewMailWorker(cfg *config.Config, rdb *redis.Client, log zerolog.Logger) *MailWorker {
	return &MailWorker{
		cfg:    cfg,
		rdb:    rdb,
		log:    log.With().Str("component", "mail_worker").Logger(),
		dialer: gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass),
	}
}

type queuedMail struct {
	model.MailMessage
	Attempts int `json:"attempts"`
}

// Start runs the delivery loop until the context is cancelled.
func (w *MailWorker) Start(ctx context.Context) {
	w.log.Info().Msg("MailWorker started")

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("MailWorker stopped")
			return

		default:
			item, err := w.rdb.BLPop(ctx, MailPollTimeout, config.WorkerKey.OutboundMailQueue).Result()
			if err != nil {
				if err != redis.Nil && ctx.Err() == nil {
					w.log.Error().Err(err).Msg("BLPop error")
				}
				continue
			}

			if len(item) < 2 {
				continue
			}

			var m queuedMail
			if err := json.Unmarshal([]byte(item[1]), &m); err != nil {
				w.log.Error().Err(err).Msg("Invalid JSON payload")
				continue
			}

			w.deliver(ctx, &m)
		}
	}
}

// deliver sends one mail, requeueing on failure until MailMaxAttempts.
func (w *MailWorker) deliver(ctx context.Context, m *queuedMail) {
	msg := gomail.NewMessage()
	msg.SetHeader("From", w.cfg.MailFrom)
	msg.SetHeader("To", m.To)
	msg.SetHeader("Subject", m.Subject)
	msg.SetBody("text/plain", m.Body)

	if err := w.dialer.DialAndSend(msg); err != nil {
		m.Attempts++
		if m.Attempts >= MailMaxAttempts {
			w.log.Error().Err(err).Str("to", m.To).
				Int("attempts", m.Attempts).Msg("Mail dropped after repeated failures")
			return
		}

		w.log.Warn().Err(err).Str("to", m.To).
			Int("attempts", m.Attempts).Msg("Mail delivery failed, requeueing")
		raw, _ := json.Marshal(m)
		w.rdb.RPush(ctx, config.WorkerKey.OutboundMailQueue, raw)
		return
	}

	w.log.Info().Str("to", m.To).Msg("Mail delivered")
}
