package domain

import "errors"

// Error kinds surfaced by the chat path. Adapters and usecases wrap these with
// fmt.Errorf("...: %w") so callers can classify failures with errors.Is.
var (
	ErrValidation           = errors.New("validation error")
	ErrStoreUnavailable     = errors.New("store unavailable")
	ErrCorruptState         = errors.New("corrupt state")
	ErrEmbeddingUnavailable = errors.New("embedding unavailable")
	ErrRetrievalFailed      = errors.New("retrieval failed")
	ErrGenerationFailed     = errors.New("generation failed")
	ErrUpstreamTimeout      = errors.New("upstream timeout")
)
