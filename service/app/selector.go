package app

import (
	"context"
	"encoding/binary"

	"github.com/flow-hydraulics/flow-mint-proxy/service/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/sha3"
)

// draw is one output of the selector.
type draw struct {
	Value  uint8
	Salt   uint64
	Digest []byte
}

// pseudoRandom hashes timestamp||salt (both big-endian) with Keccak-256 and
// reduces the first byte into [0, max]. Predictable by anyone who knows the
// block timestamp, it only has to be good enough for a fee-gated mint.
func pseudoRandom(timestamp, salt uint64, max uint8) (uint8, []byte) {
	input := make([]byte, 16)
	binary.BigEndian.PutUint64(input[:8], timestamp)
	binary.BigEndian.PutUint64(input[8:], salt)

	h := sha3.NewLegacyKeccak256()
	h.Write(input)
	digest := h.Sum(nil)

	return uint8(uint16(digest[0]) % (uint16(max) + 1)), digest
}

// drawBounded returns a value in [0, max]. The salt is incremented and
// persisted before the value is returned, so no two draws share a salt even
// across restarts.
func (app *App) drawBounded(ctx context.Context, max uint8) (draw, error) {
	timestamp, err := app.clock.BlockTimestamp(ctx)
	if err != nil {
		return draw{}, errors.New(errors.KindEnvironmentError, err)
	}

	app.stateLock.Lock()
	defer app.stateLock.Unlock()

	next := app.state
	salt := next.Salt
	next.Salt++

	if err := app.db.SaveState(&next); err != nil {
		return draw{}, errors.New(errors.KindEnvironmentError, err)
	}
	app.state = next

	value, digest := pseudoRandom(timestamp, salt, max)

	log.WithFields(log.Fields{
		"method":    "drawBounded",
		"timestamp": timestamp,
		"salt":      salt,
		"max":       max,
		"value":     value,
	}).Trace("Drew pseudo random value")

	return draw{Value: value, Salt: salt, Digest: digest}, nil
}
