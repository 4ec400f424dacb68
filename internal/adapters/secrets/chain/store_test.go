package chain

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/bnema/poolwallet-cli/internal/domain"
	portmocks "github.com/bnema/poolwallet-cli/internal/ports/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const rpcKey = "ledger/rpc_url"

func newTestStore(t *testing.T) (*Store, *portmocks.MockSecretStore, *portmocks.MockSecretStore) {
	t.Helper()

	primary := portmocks.NewMockSecretStore(t)
	fallback := portmocks.NewMockSecretStore(t)
	store, err := NewStore(primary, fallback)
	require.NoError(t, err)
	return store, primary, fallback
}

func TestNewStoreRejectsNilBackends(t *testing.T) {
	t.Parallel()

	_, err := NewStore(nil, portmocks.NewMockSecretStore(t))
	assert.ErrorIs(t, err, errNilPrimaryStore)

	_, err = NewStore(portmocks.NewMockSecretStore(t), nil)
	assert.ErrorIs(t, err, errNilFallbackStore)
}

func TestStoreGetUsesPrimaryWhenItSucceeds(t *testing.T) {
	t.Parallel()

	store, primary, _ := newTestStore(t)
	primary.EXPECT().Get(mock.Anything, rpcKey).Return("https://from-pass", nil).Once()

	value, err := store.Get(context.Background(), rpcKey)
	require.NoError(t, err)
	assert.Equal(t, "https://from-pass", value)
}

func TestStoreGetFallsBackWhenPrimaryFails(t *testing.T) {
	t.Parallel()

	store, primary, fallback := newTestStore(t)
	primary.EXPECT().Get(mock.Anything, rpcKey).Return("", errors.New("pass unavailable")).Once()
	fallback.EXPECT().Get(mock.Anything, rpcKey).Return("https://from-file", nil).Once()

	value, err := store.Get(context.Background(), rpcKey)
	require.NoError(t, err)
	assert.Equal(t, "https://from-file", value)
}

func TestStoreGetReturnsCombinedErrorWhenBothBackendsFail(t *testing.T) {
	t.Parallel()

	store, primary, fallback := newTestStore(t)
	passErr := errors.New("pass failed")
	fileErr := errors.New("file failed")
	primary.EXPECT().Get(mock.Anything, rpcKey).Return("", passErr).Once()
	fallback.EXPECT().Get(mock.Anything, rpcKey).Return("", fileErr).Once()

	_, err := store.Get(context.Background(), rpcKey)
	require.Error(t, err)
	assert.ErrorContains(t, err, "primary backend get failed")
	assert.ErrorContains(t, err, "fallback backend get failed")
	assert.ErrorIs(t, err, passErr)
	assert.ErrorIs(t, err, fileErr)
}

func TestStoreGetReportsNotFoundWhenNeitherBackendHasSecret(t *testing.T) {
	t.Parallel()

	store, primary, fallback := newTestStore(t)
	primary.EXPECT().Get(mock.Anything, rpcKey).Return("", fmt.Errorf("pass: %w", domain.ErrSecretNotFound)).Once()
	fallback.EXPECT().Get(mock.Anything, rpcKey).Return("", fmt.Errorf("file: %w", domain.ErrSecretNotFound)).Once()

	_, err := store.Get(context.Background(), rpcKey)
	require.ErrorIs(t, err, domain.ErrSecretNotFound)
	assert.NotContains(t, err.Error(), "backend")
}

func TestStorePutFallsBackWhenPrimaryFails(t *testing.T) {
	t.Parallel()

	store, primary, fallback := newTestStore(t)
	primary.EXPECT().Put(mock.Anything, rpcKey, "https://rpc").Return(errors.New("pass failed")).Once()
	fallback.EXPECT().Put(mock.Anything, rpcKey, "https://rpc").Return(nil).Once()

	require.NoError(t, store.Put(context.Background(), rpcKey, "https://rpc"))
}

func TestStorePutDoesNotCallFallbackWhenPrimarySucceeds(t *testing.T) {
	t.Parallel()

	store, primary, _ := newTestStore(t)
	primary.EXPECT().Put(mock.Anything, rpcKey, "https://rpc").Return(nil).Once()

	require.NoError(t, store.Put(context.Background(), rpcKey, "https://rpc"))
}

func TestStoreDeleteReachesBothBackends(t *testing.T) {
	t.Parallel()

	store, primary, fallback := newTestStore(t)
	primary.EXPECT().Delete(mock.Anything, rpcKey).Return(nil).Once()
	fallback.EXPECT().Delete(mock.Anything, rpcKey).Return(nil).Once()

	require.NoError(t, store.Delete(context.Background(), rpcKey))
}

func TestStoreDeleteSucceedsWhenOneBackendSucceeds(t *testing.T) {
	t.Parallel()

	store, primary, fallback := newTestStore(t)
	primary.EXPECT().Delete(mock.Anything, rpcKey).Return(errors.New("pass failed")).Once()
	fallback.EXPECT().Delete(mock.Anything, rpcKey).Return(nil).Once()

	require.NoError(t, store.Delete(context.Background(), rpcKey))
}

func TestStoreGetDoesNotFallbackOnCanceledContextError(t *testing.T) {
	t.Parallel()

	store, primary, _ := newTestStore(t)
	primary.EXPECT().Get(mock.Anything, rpcKey).Return("", context.Canceled).Once()

	_, err := store.Get(context.Background(), rpcKey)
	require.ErrorIs(t, err, context.Canceled)
}
