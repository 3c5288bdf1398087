package custody

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iov-one/custody/crypto/bech32"
)

func TestAddressReserved(t *testing.T) {
	assert.True(t, ZeroAddress.IsReserved())
	assert.True(t, HeadSentinel.IsReserved())
	assert.True(t, Address(nil).IsReserved())

	member := make(Address, AddressLength)
	member[0] = 1
	assert.False(t, member.IsReserved())
}

func TestAddressValidate(t *testing.T) {
	assert.Error(t, Address{1, 2, 3}.Validate())
	assert.Error(t, Address(nil).Validate())
	assert.NoError(t, make(Address, AddressLength).Validate())
}

func TestAddressClone(t *testing.T) {
	orig := Address{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16, 17, 18, 19, 20}
	cpy := orig.Clone()
	cpy[0] = 0xff
	assert.Equal(t, byte(1), orig[0])

	assert.Nil(t, Address(nil).Clone())
}

func TestAddressUnmarshalJSONFormats(t *testing.T) {
	addr := Address{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16, 17, 18, 19, 20}
	b32, err := bech32.Encode("custody", addr)
	require.NoError(t, err)

	cases := map[string]struct {
		json    string
		wantErr bool
		want    Address
	}{
		"default hex": {
			json: `"0102030405060708090A0B0C0D0E0F1011121314"`,
			want: addr,
		},
		"hex prefix": {
			json: `"hex:0102030405060708090A0B0C0D0E0F1011121314"`,
			want: addr,
		},
		"bech32 prefix": {
			json: `"bech32:` + string(b32) + `"`,
			want: addr,
		},
		"empty zeroes": {
			json: `""`,
			want: nil,
		},
		"bad size": {
			json:    `"0102"`,
			wantErr: true,
		},
		"unknown format": {
			json:    `"base58:3yZe7d"`,
			wantErr: true,
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			var got Address
			err := json.Unmarshal([]byte(tc.json), &got)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestAddressJSONRoundTrip(t *testing.T) {
	addr := Address{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16, 17, 18, 19, 20}
	raw, err := json.Marshal(addr)
	require.NoError(t, err)

	var got Address
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, addr, got)
}
