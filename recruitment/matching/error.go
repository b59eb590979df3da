package matching

import (
	"net/http"

	"github.com/Abraxas-365/hireflow/pkg/errx"
)

var ErrRegistry = errx.NewRegistry("MATCHING")

// Error codes - Extraction & providers
var (
	CodeExtractionFailed     = ErrRegistry.Register("EXTRACTION_FAILED", errx.TypeValidation, http.StatusUnprocessableEntity, "Could not extract text from document")
	CodeUnsupportedFileType  = ErrRegistry.Register("UNSUPPORTED_FILE_TYPE", errx.TypeValidation, http.StatusBadRequest, "Unsupported document type")
	CodeProviderUnavailable  = ErrRegistry.Register("PROVIDER_UNAVAILABLE", errx.TypeExternal, http.StatusServiceUnavailable, "No provider could serve the request")
	CodeMalformedModelOutput = ErrRegistry.Register("MALFORMED_MODEL_OUTPUT", errx.TypeExternal, http.StatusBadGateway, "Model output did not match the expected schema")
	CodeEmptyPool            = ErrRegistry.Register("EMPTY_POOL", errx.TypeBusiness, http.StatusOK, "No entities available to rank")
	CodeInvalidInput         = ErrRegistry.Register("INVALID_INPUT", errx.TypeValidation, http.StatusBadRequest, "Invalid matching input")
)

// Error codes - Index & sync
var (
	CodeVectorNotFound     = ErrRegistry.Register("VECTOR_NOT_FOUND", errx.TypeNotFound, http.StatusNotFound, "Embedding vector not found")
	CodeIndexFailed        = ErrRegistry.Register("INDEX_FAILED", errx.TypeInternal, http.StatusInternalServerError, "Similarity index operation failed")
	CodeProfileNotFound    = ErrRegistry.Register("PROFILE_NOT_FOUND", errx.TypeNotFound, http.StatusNotFound, "Profile not found")
	CodeDirectoryFailed    = ErrRegistry.Register("DIRECTORY_FAILED", errx.TypeInternal, http.StatusInternalServerError, "Profile directory lookup failed")
	CodeQueueEnqueueFailed = ErrRegistry.Register("QUEUE_ENQUEUE_FAILED", errx.TypeInternal, http.StatusInternalServerError, "Failed to enqueue sync job")
	CodeQueueDequeueFailed = ErrRegistry.Register("QUEUE_DEQUEUE_FAILED", errx.TypeInternal, http.StatusInternalServerError, "Failed to dequeue sync job")
	CodeSyncMaxRetries     = ErrRegistry.Register("SYNC_MAX_RETRIES", errx.TypeInternal, http.StatusInternalServerError, "Sync job exceeded maximum retry attempts")
	CodeSyncRetryFailed    = ErrRegistry.Register("SYNC_RETRY_FAILED", errx.TypeInternal, http.StatusInternalServerError, "Failed to schedule sync job retry")
)

func ErrExtractionFailed() *errx.Error {
	return ErrRegistry.New(CodeExtractionFailed)
}

func ErrUnsupportedFileType() *errx.Error {
	return ErrRegistry.New(CodeUnsupportedFileType)
}

func ErrProviderUnavailable() *errx.Error {
	return ErrRegistry.New(CodeProviderUnavailable)
}

func ErrMalformedModelOutput() *errx.Error {
	return ErrRegistry.New(CodeMalformedModelOutput)
}

func ErrEmptyPool() *errx.Error {
	return ErrRegistry.New(CodeEmptyPool)
}

func ErrInvalidInput() *errx.Error {
	return ErrRegistry.New(CodeInvalidInput)
}

func ErrVectorNotFound() *errx.Error {
	return ErrRegistry.New(CodeVectorNotFound)
}

func ErrIndexFailed() *errx.Error {
	return ErrRegistry.New(CodeIndexFailed)
}

func ErrProfileNotFound() *errx.Error {
	return ErrRegistry.New(CodeProfileNotFound)
}

func ErrDirectoryFailed() *errx.Error {
	return ErrRegistry.New(CodeDirectoryFailed)
}

func ErrQueueEnqueueFailed() *errx.Error {
	return ErrRegistry.New(CodeQueueEnqueueFailed)
}

func ErrQueueDequeueFailed() *errx.Error {
	return ErrRegistry.New(CodeQueueDequeueFailed)
}

func ErrSyncMaxRetries() *errx.Error {
	return ErrRegistry.New(CodeSyncMaxRetries)
}

func ErrSyncRetryFailed() *errx.Error {
	return ErrRegistry.New(CodeSyncRetryFailed)
}
