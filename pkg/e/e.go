package e

import (
	"errors"
	"fmt"
)

var (
	// Внутренние ошибки с транзакциями
	ErrTransactionNotFound = fmt.Errorf("transaction not found")

	// Некорректные входные данные (400 Bad Request)
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidCoordinates = fmt.Errorf("%w: coordinates out of range", ErrInvalidInput)
	ErrInvalidRadius      = fmt.Errorf("%w: radius must be a finite non-negative number", ErrInvalidInput)
	ErrInvalidK           = fmt.Errorf("%w: k must be at least 1", ErrInvalidInput)
	ErrInvalidImage       = fmt.Errorf("%w: image cannot be decoded", ErrInvalidInput)
	ErrInvalidCategory    = fmt.Errorf("%w: unknown poi category", ErrInvalidInput)
	ErrInvalidDateRange   = fmt.Errorf("%w: end date is before start date", ErrInvalidInput)
	ErrInvalidTime        = fmt.Errorf("%w: time must be HH:MM", ErrInvalidInput)
	ErrInvalidPrice       = fmt.Errorf("%w: invalid price", ErrInvalidInput)
	ErrMissingFields      = fmt.Errorf("%w: required fields are missing", ErrInvalidInput)
	ErrExpectedMultipart  = fmt.Errorf("%w: expected multipart/form-data", ErrInvalidInput)
	ErrFileTooLarge       = fmt.Errorf("%w: file too large", ErrInvalidInput)
	ErrNoImages           = fmt.Errorf("%w: no image provided", ErrInvalidInput)
	ErrUnsupportedMedia   = fmt.Errorf("%w: unsupported media type", ErrInvalidInput)

	// Внутренние ошибки с векторами
	ErrVectorEmbeddingEmpty = fmt.Errorf("vector embedding is empty")
	ErrZeroVector           = fmt.Errorf("zero-length vector cannot be normalized")
	ErrDimensionMismatch    = fmt.Errorf("vector dimension mismatch")
	ErrPreprocessMismatch   = fmt.Errorf("index preprocessing parameters differ from query pipeline")

	// Ошибки конфигурации: индекс отсутствует или повреждён
	ErrIndexUnavailable = errors.New("embedding index unavailable")
	ErrIndexCorrupted   = fmt.Errorf("%w: corrupted index file", ErrIndexUnavailable)
	ErrUnknownBackend   = errors.New("unknown similarity backend")

	// 404 / 409 / 401
	ErrNotFound       = errors.New("not found")
	ErrAnchorNotFound = fmt.Errorf("%w: no poi matches anchor name", ErrNotFound)
	ErrUserExists     = errors.New("user already exists")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrBadCredentials = fmt.Errorf("%w: bad credentials", ErrUnauthorized)

	ErrIncorrectEnvVariable = errors.New("incorrect environment variable")
	ErrInternalServerError  = errors.New("internal server error")
)

// Wrap оборачивает ошибку
func Wrap(msg string, err error) error {
	return fmt.Errorf("%s: %w", msg, err)
}
