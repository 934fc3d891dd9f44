package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/example/flyder-sync-service/internal/domain"
)

const (
	ExitSuccess      = 0
	ExitFailure      = 1 // прогон упал
	ExitCommandError = 2 // неверные аргументы или конфигурация
)

// ExitError — ошибка с кодом выхода процесса.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error { return e.Err }

func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode возвращает код выхода; для обычных ошибок — ExitFailure.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// runError переводит ошибку прогона в код выхода.
func runError(message string, err error) error {
	var fatal *domain.FatalError
	if !errors.As(err, &fatal) && (domain.IsUserError(err) || errors.Is(err, domain.ErrConfiguration)) {
		return WrapExitError(ExitCommandError, message, err)
	}
	return WrapExitError(ExitFailure, message, err)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeStats(w io.Writer, s domain.RunStats) {
	fmt.Fprintf(w, "fetched:   %d\n", s.TotalFetched)
	fmt.Fprintf(w, "synced:    %d\n", s.SyncedOrders)
	fmt.Fprintf(w, "skipped:   %d\n", s.SkippedOrders)
	fmt.Fprintf(w, "failed:    %d\n", s.FailedOrders)
	fmt.Fprintf(w, "new stores: %d\n", s.NewStoresCreated)
	for _, e := range s.Errors {
		fmt.Fprintf(w, "  order %s: %s\n", e.RecordID, e.Message)
	}
	if s.DroppedErrors > 0 {
		fmt.Fprintf(w, "  ... and %d more errors\n", s.DroppedErrors)
	}
}
