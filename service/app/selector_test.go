package app

import (
	"context"
	"encoding/hex"
	"fmt"
	"testing"

	"github.com/flow-hydraulics/flow-mint-proxy/service/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPseudoRandomKnownDigest(t *testing.T) {
	cases := []struct {
		timestamp uint64
		salt      uint64
		digest    string
	}{
		{1_700_000_000_000, 0, "5fec371bdaaa9bc401d1292345c6581cd87194efbb4da1e10df164abca656ccb"},
		{1_700_000_000_000, 1, "e36c86570e33a271f7d9f538433c320f05e309a7e424e9f13ee0cb4b4983392e"},
		{0, 0, "f490de2920c8a35fabeb13208852aa28c76f9be9b03a4dd2b3c075f7a26923b4"},
	}

	for _, c := range cases {
		t.Run(fmt.Sprintf("%d/%d", c.timestamp, c.salt), func(t *testing.T) {
			value, digest := pseudoRandom(c.timestamp, c.salt, 255)
			assert.Equal(t, c.digest, hex.EncodeToString(digest))
			assert.Equal(t, digest[0], value)
		})
	}
}

func TestPseudoRandomRange(t *testing.T) {
	for max := 0; max <= 255; max++ {
		for salt := uint64(0); salt < 16; salt++ {
			value, digest := pseudoRandom(1_700_000_000_000, salt, uint8(max))
			require.LessOrEqual(t, int(value), max)
			require.Equal(t, int(digest[0])%(max+1), int(value))
		}
	}
}

func TestPseudoRandomZeroMax(t *testing.T) {
	for salt := uint64(0); salt < 32; salt++ {
		value, _ := pseudoRandom(42, salt, 0)
		assert.Equal(t, uint8(0), value)
	}
}

func TestPseudoRandomDeterministic(t *testing.T) {
	a, da := pseudoRandom(1_700_000_000_000, 7, 9)
	b, db := pseudoRandom(1_700_000_000_000, 7, 9)
	assert.Equal(t, a, b)
	assert.Equal(t, da, db)

	_, dc := pseudoRandom(1_700_000_000_000, 8, 9)
	assert.NotEqual(t, da, dc)
}

func TestDrawBoundedIncrementsSalt(t *testing.T) {
	app, store := newTestApp(t, newFakeContract(3))
	ctx := context.Background()

	for i := uint64(0); i < 5; i++ {
		d, err := app.drawBounded(ctx, 2)
		require.NoError(t, err)
		assert.Equal(t, i, d.Salt)
		assert.LessOrEqual(t, d.Value, uint8(2))

		want, digest := pseudoRandom(1_700_000_000_000, i, 2)
		assert.Equal(t, want, d.Value)
		assert.Equal(t, digest, d.Digest)
	}

	assert.Equal(t, uint64(5), app.State().Salt)

	stored, found, err := store.LoadState(StorageKey)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, uint64(5), stored.Salt)
}

func TestDrawBoundedClockFailure(t *testing.T) {
	app, _ := newTestApp(t, newFakeContract(3))
	app.clock = &fakeClock{err: fmt.Errorf("no header")}

	_, err := app.drawBounded(context.Background(), 2)
	assert.ErrorIs(t, err, errors.ErrEnvironmentError)
	assert.Equal(t, uint64(0), app.State().Salt)
}
