package domain

import (
	"errors"
	"fmt"
)

// Общие доменные ошибки
var (
	ErrNotFound   = notFoundError("not found")
	ErrValidation = validationError("invalid data")

	ErrConfiguration = errors.New("configuration error")
	ErrInvalidWindow = fmt.Errorf("%w: invalid date window", ErrConfiguration)

	ErrConnection  = errors.New("source connection failed")
	ErrQuery       = errors.New("source query failed")
	ErrMappingLoad = errors.New("franchise mappings load failed")
	ErrCommit      = errors.New("destination commit failed")

	ErrRowParse  = errors.New("malformed source row")
	ErrTransform = errors.New("order transform failed")
)

type notFoundError string

func (e notFoundError) Error() string { return string(e) }

type validationError string

func (e validationError) Error() string { return string(e) }

// RunState — состояние прогона синхронизации.
type RunState string

const (
	StateLoadingMappings RunState = "loading_mappings"
	StateFetching        RunState = "fetching"
	StateProcessing      RunState = "processing"
	StateFinalCommit     RunState = "final_commit"
	StateDone            RunState = "done"
	StateFatal           RunState = "fatal"
)

// FatalError — ошибка, прервавшая прогон; Stage — состояние, в котором она произошла.
type FatalError struct {
	Stage RunState
	Err   error
}

func (e *FatalError) Error() string { return fmt.Sprintf("sync %s: %v", e.Stage, e.Err) }

func (e *FatalError) Unwrap() error { return e.Err }

// IsUserError сообщает, вызвана ли ошибка некорректным запросом, а не сбоем прогона.
func IsUserError(err error) bool {
	return errors.Is(err, ErrInvalidWindow) || errors.Is(err, ErrValidation)
}
