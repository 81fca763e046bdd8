package template

import (
	"context"
	"errors"
	"testing"

	"github.com/benefactorum/authotp/internal/notification/entity"
	"github.com/benefactorum/authotp/internal/pkg/goerror"
	"github.com/benefactorum/authotp/internal/pkg/instrument"
	"github.com/benefactorum/authotp/internal/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStorage struct {
	objects map[string]string
	etag    string
	gets    int
	err     error
}

func (f *fakeStorage) Close() error { return nil }

func (f *fakeStorage) Stat(_ context.Context, bucket, key string) (storage.ObjectInfo, error) {
	if f.err != nil {
		return storage.ObjectInfo{}, f.err
	}
	if _, ok := f.objects[key]; !ok {
		return storage.ObjectInfo{}, storage.ErrObjectNotFound
	}
	return storage.ObjectInfo{Bucket: bucket, Key: key, ETag: f.etag}, nil
}

func (f *fakeStorage) Get(ctx context.Context, bucket, key string) ([]byte, storage.ObjectInfo, error) {
	info, err := f.Stat(ctx, bucket, key)
	if err != nil {
		return nil, info, err
	}
	f.gets++
	return []byte(f.objects[key]), info, nil
}

func TestLoader_Get(t *testing.T) {
	t.Run("storage object wins and is cached by etag", func(t *testing.T) {
		// Arrange
		store := &fakeStorage{objects: map[string]string{"email/otp_code.html": "custom"}, etag: "v1"}
		l := New(store, Options{Bucket: "b", Prefix: "email/"}, instrument.NewNoop())

		// Act
		first, err1 := l.Get(context.Background(), entity.TriggerKeyOTPCode)
		second, err2 := l.Get(context.Background(), entity.TriggerKeyOTPCode)
		store.etag = "v2"
		third, err3 := l.Get(context.Background(), entity.TriggerKeyOTPCode)

		// Assert
		require.NoError(t, err1)
		require.NoError(t, err2)
		require.NoError(t, err3)
		assert.Equal(t, "custom", first.Source)
		assert.Equal(t, "v1", second.Version)
		assert.Equal(t, "v2", third.Version)
		assert.Equal(t, 2, store.gets)
	})

	t.Run("missing object falls back to the embedded copy", func(t *testing.T) {
		// Arrange
		l := New(&fakeStorage{}, Options{Bucket: "b"}, instrument.NewNoop())

		// Act
		tpl, err := l.Get(context.Background(), entity.TriggerKeyOTPCode)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, "embedded", tpl.Version)
		assert.Contains(t, tpl.Source, `{{define "subject"}}`)
	})

	t.Run("storage failure falls back too", func(t *testing.T) {
		// Arrange
		l := New(&fakeStorage{err: errors.New("timeout")}, Options{Bucket: "b"}, instrument.NewNoop())

		// Act
		tpl, err := l.Get(context.Background(), entity.TriggerKeyOTPCode)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, "embedded", tpl.Version)
	})

	t.Run("unknown trigger", func(t *testing.T) {
		// Arrange
		l := New(nil, Options{}, instrument.NewNoop())

		// Act
		tpl, err := l.Get(context.Background(), entity.TriggerKey("nope"))

		// Assert
		assert.Nil(t, tpl)
		assert.ErrorIs(t, err, goerror.ErrNotFound)
	})
}
