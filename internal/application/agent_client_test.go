package application

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeChainID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw     string
		want    int64
		wantErr bool
	}{
		{raw: `"0x13882"`, want: 80002},
		{raw: `"80002"`, want: 80002},
		{raw: `80002`, want: 80002},
		{raw: `"0x0"`, wantErr: true},
		{raw: `"amoy"`, wantErr: true},
		{raw: `{}`, wantErr: true},
	}

	for _, tc := range tests {
		got, err := decodeChainID(json.RawMessage(tc.raw))
		if tc.wantErr {
			assert.ErrorIs(t, err, errInvalidAgentResponse, tc.raw)
			continue
		}
		require.NoError(t, err, tc.raw)
		assert.Equal(t, tc.want, got.Int64(), tc.raw)
	}
}

func TestDecodeAccountsAndChecksum(t *testing.T) {
	t.Parallel()

	accounts, err := decodeAccounts(json.RawMessage(`null`))
	require.NoError(t, err)
	assert.Empty(t, accounts)

	_, err = decodeAccounts(json.RawMessage(`"0xabc"`))
	assert.ErrorIs(t, err, errInvalidAgentResponse)

	address, err := checksumAddress(" 0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed ")
	require.NoError(t, err)
	assert.Equal(t, "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed", address)

	_, err = checksumAddress("0x123")
	assert.ErrorIs(t, err, errInvalidAgentResponse)
}

func TestDecodeTxHash(t *testing.T) {
	t.Parallel()

	hash, err := decodeTxHash(json.RawMessage(`"0x00000000000000000000000000000000000000000000000000000000000000ff"`))
	require.NoError(t, err)
	assert.Equal(t, byte(0xff), hash[31])

	_, err = decodeTxHash(json.RawMessage(`"0xff"`))
	assert.ErrorIs(t, err, errInvalidAgentResponse)
}
