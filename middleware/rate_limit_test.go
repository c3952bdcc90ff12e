package middleware

import (
	"errors"
	"testing"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStorageValueMapsMissingKeyToNil(t *testing.T) {
	val, err := storageValue(nil, redis.Nil)
	require.NoError(t, err)
	assert.Nil(t, val)
}

func TestStorageValuePassesThroughHitsAndErrors(t *testing.T) {
	val, err := storageValue([]byte("3"), nil)
	require.NoError(t, err)
	assert.Equal(t, []byte("3"), val)

	broken := errors.New("connection refused")
	_, err = storageValue(nil, broken)
	assert.ErrorIs(t, err, broken)
}
