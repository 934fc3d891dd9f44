package usecase

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/example/flyder-sync-service/internal/domain"
)

// ProcessSyncRequest — обработать входящее сообщение с запросом синхронизации.
// Некорректный запрос логируется и подтверждается (nil): повторная доставка его не исправит.
// Фатальная ошибка прогона возвращается, и сообщение будет доставлено снова.
type ProcessSyncRequest struct {
	Sync   WindowSyncer
	Logger *zap.Logger
}

func (uc ProcessSyncRequest) Execute(ctx context.Context, raw []byte) error {
	log := uc.Logger
	if log == nil {
		log = zap.NewNop()
	}
	var req domain.SyncRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		log.Warn("invalid sync request", zap.Error(err))
		return nil
	}
	w, err := req.Window()
	if err != nil {
		log.Warn("invalid sync request", zap.Error(err))
		return nil
	}
	if _, err := uc.Sync.Execute(ctx, w); err != nil {
		if domain.IsUserError(err) {
			return nil
		}
		return err
	}
	return nil
}
