package files

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStore(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	key := "projects/report.pdf"
	data := []byte("%PDF-1.4 fake")

	ok, err := store.Exists(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = store.Read(ctx, key)
	assert.ErrorIs(t, err, ErrNotExist)

	require.NoError(t, store.Write(ctx, key, data))

	ok, err = store.Exists(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := store.Read(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, data, got)

	require.NoError(t, store.Delete(ctx, key))
	require.NoError(t, store.Delete(ctx, key), "deleting a missing key")

	_, err = store.Read(ctx, key)
	assert.ErrorIs(t, err, ErrNotExist)
}

func TestLocalStore_path(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	tests := []struct {
		name    string
		key     string
		wantErr bool
	}{
		{name: "simple", key: "a.pdf"},
		{name: "nested", key: "projects/a.pdf"},
		{name: "dot dot stays inside root", key: "../../etc/passwd"},
		{name: "empty", key: "", wantErr: true},
		{name: "root", key: "/", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := store.path(tt.key)
			if (err != nil) != tt.wantErr {
				t.Errorf("path() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewLocalStore_noDir(t *testing.T) {
	_, err := NewLocalStore("")
	assert.Error(t, err)
}
