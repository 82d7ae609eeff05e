package notification

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hackgods/blood-donation-coordination/internal/config"
)

var (
	ErrInvalidConfig = errors.New("invalid notification config")
	ErrSendFailed    = errors.New("notification send failed")
)

// Sender delivers a message to one address on one channel.
type Sender interface {
	Send(ctx context.Context, to string, msg Message) (Result, error)
}

// Senders holds the per-channel delivery backends.
type Senders struct {
	Email Sender
	SMS   Sender
}

// NewSenders wires real providers when credentials are configured and
// falls back to LogSender otherwise.
func NewSenders(cfg config.Config, log *zap.Logger) (Senders, error) {
	var s Senders

	if cfg.PostmarkServerToken != "" {
		email, err := NewPostmarkSender(cfg.PostmarkServerToken, cfg.PostmarkAccountToken, cfg.EmailFrom)
		if err != nil {
			return Senders{}, err
		}
		s.Email = email
	} else {
		log.Warn("postmark token not set, email alerts will only be logged")
		s.Email = NewLogSender(log.With(zap.String("channel", "email")))
	}

	if cfg.SMSAccountSID != "" && cfg.SMSAuthToken != "" {
		sms, err := NewSMSSender(cfg.SMSBaseURL, cfg.SMSAccountSID, cfg.SMSAuthToken, cfg.SMSFrom)
		if err != nil {
			return Senders{}, err
		}
		s.SMS = sms
	} else {
		log.Warn("sms credentials not set, sms alerts will only be logged")
		s.SMS = NewLogSender(log.With(zap.String("channel", "sms")))
	}

	return s, nil
}

// LogSender writes messages to the log instead of delivering them.
type LogSender struct {
	log *zap.Logger
}

func NewLogSender(log *zap.Logger) *LogSender {
	return &LogSender{log: log}
}

func (s *LogSender) Send(ctx context.Context, to string, msg Message) (Result, error) {
	if to == "" {
		return Result{}, fmt.Errorf("%w: empty recipient", ErrSendFailed)
	}
	ref := "log-" + uuid.NewString()
	s.log.Info("notification logged",
		zap.String("to", to),
		zap.String("subject", msg.Subject),
		zap.String("text", msg.Text),
		zap.String("provider_ref", ref),
	)
	return Result{ProviderRef: ref}, nil
}
