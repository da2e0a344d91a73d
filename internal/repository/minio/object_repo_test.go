package minio

import (
	"errors"
	"testing"

	"github.com/DRSN-tech/tourism-backend/pkg/e"
	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
)

func TestMapMinioErr(t *testing.T) {
	notFound := minio.ErrorResponse{Code: "NoSuchKey", Message: "The specified key does not exist."}
	assert.ErrorIs(t, mapMinioErr(notFound), e.ErrNotFound)

	denied := minio.ErrorResponse{Code: "AccessDenied"}
	assert.Equal(t, error(denied), mapMinioErr(denied))

	plain := errors.New("connection reset")
	assert.Equal(t, plain, mapMinioErr(plain))
}
