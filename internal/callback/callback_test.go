package callback_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopbot/internal/callback"
)

func TestEncodeDecodeVariants(t *testing.T) {
	cases := []callback.Callback{
		callback.NavShop{Index: 3},
		callback.NavCart{Index: 1},
		callback.NavDelete{Index: 7},
		callback.AddToCart{ChatID: 42, ProductID: 9, Name: "Teapot"},
		callback.DelCartItem{CartItemID: 5, Index: 2, Pages: 4, Name: "Teapot"},
		callback.DelProduct{ProductID: 9, Index: 1, Pages: 4, Name: "Teapot"},
	}

	for _, cb := range cases {
		decoded, err := callback.Decode(callback.Encode(cb))
		require.NoError(t, err)
		assert.Equal(t, cb, decoded)
	}
}

func TestDecodeNameWithCommas(t *testing.T) {
	cb := callback.AddToCart{ChatID: 1, ProductID: 2, Name: "Tea, black, loose"}
	decoded, err := callback.Decode(callback.Encode(cb))
	require.NoError(t, err)
	assert.Equal(t, cb, decoded)
}

func TestDecodeMalformed(t *testing.T) {
	for _, payload := range []string{
		"",
		"nav_shop",
		"nav_shop x",
		"add_cart 1,notanumber,Name",
		"del_cart 1,2",
		"bogus 1,2,3",
	} {
		_, err := callback.Decode(payload)
		assert.ErrorIs(t, err, callback.ErrMalformed, "payload %q", payload)
	}
}
