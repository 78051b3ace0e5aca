package alerts

import (
	"context"
	"encoding/json"
	"fmt"
	"net/smtp"
	"time"

	"modelpay/internal/logger"
	"modelpay/internal/metrics"

	"github.com/redis/go-redis/v9"
)

// Alert kinds the billing core raises for the ops inbox.
const (
	KindUnknownWebhookRecord = "unknown_webhook_record"
	KindProviderDown         = "provider_down"
	KindCreditFailure        = "credit_failure"
)

const (
	queueKey       = "billing:alerts"
	failedQueueKey = "billing:alerts:failed"
	maxTries       = 3
)

type Alert struct {
	Kind    string    `json:"kind"`
	Subject string    `json:"subject"`
	Detail  string    `json:"detail"`
	Tries   int       `json:"tries"`
	Created time.Time `json:"created"`
}

type Service struct {
	redis    *redis.Client
	to       string
	from     string
	fromName string
	smtpHost string
	smtpPort string
	smtpUser string
	smtpPass string
}

func New(alertEmail, fromEmail, fromName, smtpHost, smtpPort, smtpUser, smtpPass, redisAddr string) *Service {
	return &Service{
		redis: redis.NewClient(&redis.Options{
			Addr: redisAddr,
		}),
		to:       alertEmail,
		from:     fromEmail,
		fromName: fromName,
		smtpHost: smtpHost,
		smtpPort: smtpPort,
		smtpUser: smtpUser,
		smtpPass: smtpPass,
	}
}

// NewWithClient is used by tests to inject a mock redis client.
func NewWithClient(client *redis.Client, alertEmail string) *Service {
	return &Service{redis: client, to: alertEmail}
}

// Raise queues an alert; delivery happens on the worker goroutine so the
// request path never blocks on SMTP.
func (s *Service) Raise(ctx context.Context, kind, subject, detail string) error {
	alert := Alert{
		Kind:    kind,
		Subject: subject,
		Detail:  detail,
		Created: time.Now(),
	}

	data, err := json.Marshal(alert)
	if err != nil {
		return err
	}

	if err := s.redis.LPush(ctx, queueKey, string(data)).Err(); err != nil {
		logger.Errorf("Failed to queue alert %s: %v", kind, err)
		return err
	}

	logger.Infof("Alert queued: %s", kind)
	return nil
}

func (s *Service) Start(ctx context.Context) {
	logger.Info("Alert worker started")

	for {
		select {
		case <-ctx.Done():
			logger.Info("Alert worker stopped")
			return
		default:
			s.processNext(ctx)
		}
	}
}

func (s *Service) processNext(ctx context.Context) {
	result, err := s.redis.BRPop(ctx, 2*time.Second, queueKey).Result()
	if err != nil {
		return
	}

	if length, err := s.redis.LLen(ctx, queueKey).Result(); err == nil {
		metrics.AlertQueueLength.Set(float64(length))
	}

	var alert Alert
	if err := json.Unmarshal([]byte(result[1]), &alert); err != nil {
		logger.Errorf("Bad alert data: %v", err)
		return
	}

	alert.Tries++
	if err := s.sendNow(alert); err != nil {
		logger.Errorf("Failed to send alert %s: %v", alert.Kind, err)
		metrics.RecordAlert("failed")

		if alert.Tries < maxTries {
			time.Sleep(5 * time.Second)
			data, _ := json.Marshal(alert)
			s.redis.LPush(context.Background(), queueKey, data)
		} else {
			s.saveFailed(alert, err)
		}
		return
	}

	metrics.RecordAlert("sent")
}

func (s *Service) sendNow(alert Alert) error {
	message := fmt.Sprintf("From: %s <%s>\r\n", s.fromName, s.from)
	message += fmt.Sprintf("To: %s\r\n", s.to)
	message += fmt.Sprintf("Subject: [billing] %s\r\n", alert.Subject)
	message += "\r\n" + alert.Detail

	var auth smtp.Auth
	if s.smtpUser != "" && s.smtpPass != "" {
		auth = smtp.PlainAuth("", s.smtpUser, s.smtpPass, s.smtpHost)
	}

	addr := s.smtpHost + ":" + s.smtpPort
	return smtp.SendMail(addr, auth, s.from, []string{s.to}, []byte(message))
}

func (s *Service) saveFailed(alert Alert, err error) {
	failed := map[string]interface{}{
		"alert": alert,
		"error": err.Error(),
		"time":  time.Now(),
	}
	data, _ := json.Marshal(failed)
	s.redis.LPush(context.Background(), failedQueueKey, data)
	logger.Errorf("Alert moved to failed queue: %s", alert.Kind)
}

func (s *Service) QueueLength(ctx context.Context) int64 {
	length, _ := s.redis.LLen(ctx, queueKey).Result()
	return length
}

func (s *Service) Close() error {
	return s.redis.Close()
}
