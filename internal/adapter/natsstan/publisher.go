package natsstan

import (
	"encoding/json"
	"fmt"

	stan "github.com/nats-io/stan.go"

	"github.com/example/flyder-sync-service/internal/domain"
)

// EncodeRequest проверяет запрос до публикации: брокер не должен получать заведомо невалидные окна.
func EncodeRequest(req domain.SyncRequest) ([]byte, error) {
	if _, err := req.Window(); err != nil {
		return nil, err
	}
	return json.Marshal(req)
}

// Publish отправляет запрос синхронизации в subject.
func Publish(sc stan.Conn, subject string, req domain.SyncRequest) (int, error) {
	b, err := EncodeRequest(req)
	if err != nil {
		return 0, err
	}
	if subject == "" {
		subject = DefaultSubject
	}
	if err := sc.Publish(subject, b); err != nil {
		return 0, fmt.Errorf("publish: %w", err)
	}
	return len(b), nil
}
