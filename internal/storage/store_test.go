package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMinioStore_RequiresEndpointAndBucket(t *testing.T) {
	_, err := NewMinioStore(WithBucket("artifacts"))
	assert.Error(t, err)

	_, err = NewMinioStore(WithEndpoint("localhost:9000"))
	assert.Error(t, err)
}

func TestNewMinioStore_AppliesOptions(t *testing.T) {
	s, err := NewMinioStore(
		WithEndpoint("localhost:9000"),
		WithBucket("artifacts"),
		WithCredentials("access", "secret"),
		WithSSL(true),
	)
	require.NoError(t, err)

	assert.Equal(t, "localhost:9000", s.cfg.endpoint)
	assert.Equal(t, "artifacts", s.cfg.bucket)
	assert.True(t, s.cfg.useSSL)
}
