package natsstan

import (
	"context"
	"fmt"
	"time"

	stan "github.com/nats-io/stan.go"
	"go.uber.org/zap"

	"github.com/example/flyder-sync-service/internal/domain"
)

const (
	DefaultSubject    = "flyder.sync.requests"
	DefaultQueueGroup = "flyder-sync-workers"
	// прогон по большому окну идёт минутами; AckWait не должен истечь раньше обработчика
	defaultHandlerTimeout = 30 * time.Minute
)

type Subscriber struct {
	ClusterID      string
	ClientID       string
	URL            string
	Subject        string
	QueueGroup     string
	Durable        string
	AckWait        time.Duration
	HandlerTimeout time.Duration
	Log            *zap.Logger
}

func (s *Subscriber) Subscribe(ctx context.Context, handler func(ctx context.Context, raw []byte) error) error {
	log := s.Log
	if log == nil {
		log = zap.NewNop()
	}
	clientID := s.ClientID
	if clientID == "" {
		clientID = fmt.Sprintf("flyder-sync-%d", time.Now().UnixNano())
	}
	subject := s.Subject
	if subject == "" {
		subject = DefaultSubject
	}
	group := s.QueueGroup
	if group == "" {
		group = DefaultQueueGroup
	}
	timeout := s.HandlerTimeout
	if timeout <= 0 {
		timeout = defaultHandlerTimeout
	}
	ackWait := s.AckWait
	if ackWait <= 0 {
		ackWait = timeout
	}

	sc, err := stan.Connect(s.ClusterID, clientID, stan.NatsURL(s.URL))
	if err != nil {
		return err
	}
	go func() {
		<-ctx.Done()
		sc.Close()
	}()
	_, err = sc.QueueSubscribe(subject, group, func(m *stan.Msg) {
		hCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		if err := handler(hCtx, m.Data); err != nil {
			// не подтверждаем, даём сообщению переотправиться
			log.Error("sync request failed", zap.Uint64("seq", m.Sequence), zap.Bool("redelivered", m.Redelivered), zap.Error(err))
			return
		}
		if err := m.Ack(); err != nil {
			log.Warn("ack failed", zap.Uint64("seq", m.Sequence), zap.Error(err))
		}
	},
		stan.DurableName(s.Durable),
		stan.SetManualAckMode(),
		stan.AckWait(ackWait),
		stan.MaxInflight(1),
		stan.DeliverAllAvailable(),
	)
	if err != nil {
		sc.Close()
		return err
	}
	log.Info("subscribed to sync requests", zap.String("subject", subject), zap.String("queue", group))
	return nil
}

var _ domain.SyncRequestSubscriber = (*Subscriber)(nil)
