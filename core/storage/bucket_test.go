package storage_test

import (
	"context"
	"errors"
	"testing"

	"collection-engine/core/storage"
	"collection-engine/core/storage/mocks"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestEnsureBucket(t *testing.T) {
	t.Run("Exists", func(t *testing.T) {
		client := new(mocks.Client)
		client.On("BucketExists", mock.Anything, "snapshots").Return(true, nil)

		assert.NoError(t, storage.EnsureBucket(context.Background(), client, "snapshots", ""))
		client.AssertNotCalled(t, "MakeBucket", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Created", func(t *testing.T) {
		client := new(mocks.Client)
		client.On("BucketExists", mock.Anything, "snapshots").Return(false, nil)
		client.On("MakeBucket", mock.Anything, "snapshots", minio.MakeBucketOptions{Region: "eu-west-1"}).Return(nil)

		assert.NoError(t, storage.EnsureBucket(context.Background(), client, "snapshots", "eu-west-1"))
		client.AssertExpectations(t)
	})

	t.Run("CheckFails", func(t *testing.T) {
		client := new(mocks.Client)
		client.On("BucketExists", mock.Anything, "snapshots").Return(false, errors.New("denied"))

		assert.ErrorContains(t, storage.EnsureBucket(context.Background(), client, "snapshots", ""), "denied")
	})
}

func TestListKeys(t *testing.T) {
	client := new(mocks.Client)
	client.On("ListObjects", mock.Anything, "snapshots", mock.Anything).
		Return(mocks.Objects("collections/a.yaml", "collections/b.yaml"))

	keys, err := storage.ListKeys(context.Background(), client, "snapshots", "collections/")
	assert.NoError(t, err)
	assert.Equal(t, []string{"collections/a.yaml", "collections/b.yaml"}, keys)
}
