package http

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/flow-hydraulics/flow-mint-proxy/service/common"
	"github.com/flow-hydraulics/flow-mint-proxy/service/errors"
	"golang.org/x/crypto/sha3"
)

// Headers of a signed request
const (
	HeaderKeyIndex  = "X-Flow-Key-Index"
	HeaderTimestamp = "X-Flow-Timestamp"
	HeaderSignature = "X-Flow-Signature"
)

// CallerVerifier checks a signature against the keys of the caller's account.
type CallerVerifier interface {
	VerifyCallerSignature(ctx context.Context, caller common.FlowAddress, keyIndex int, message, signature []byte) error
}

// callerRequest is a request body naming the identity it acts as.
type callerRequest interface {
	CallerAddress() common.FlowAddress
}

// Authenticator accepts a request body only if it is signed by the caller it
// names. A signed request is accepted once and only within MaxAge of its timestamp.
type Authenticator struct {
	verifier CallerVerifier
	maxAge   time.Duration
	now      func() time.Time

	mu   sync.Mutex
	seen map[string]time.Time
}

func NewAuthenticator(verifier CallerVerifier, maxAge time.Duration) *Authenticator {
	return &Authenticator{
		verifier: verifier,
		maxAge:   maxAge,
		now:      time.Now,
		seen:     make(map[string]time.Time),
	}
}

// RequestMessage is what a caller signs: method, path, unix timestamp in
// seconds and the raw body, separated by newlines.
func RequestMessage(method, path string, timestamp int64, body []byte) []byte {
	header := fmt.Sprintf("%s\n%s\n%d\n", method, path, timestamp)
	return append([]byte(header), body...)
}

// decodeSigned decodes the JSON body into v and authenticates its caller.
func (a *Authenticator) decodeSigned(r *http.Request, v callerRequest) error {
	if err := checkNonEmptyBody(r); err != nil {
		return badRequest(err)
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		return badRequest(err)
	}

	if err := json.Unmarshal(body, v); err != nil {
		return badRequest(err)
	}

	caller := v.CallerAddress()
	if caller.IsEmpty() {
		return errors.New(errors.KindInvalidInput, fmt.Errorf("caller must be defined"))
	}

	keyIndex, err := strconv.Atoi(r.Header.Get(HeaderKeyIndex))
	if err != nil {
		return errors.New(errors.KindNotAuthorized, fmt.Errorf("invalid %s header: %w", HeaderKeyIndex, err))
	}

	timestamp, err := strconv.ParseInt(r.Header.Get(HeaderTimestamp), 10, 64)
	if err != nil {
		return errors.New(errors.KindNotAuthorized, fmt.Errorf("invalid %s header: %w", HeaderTimestamp, err))
	}

	signature, err := hex.DecodeString(r.Header.Get(HeaderSignature))
	if err != nil || len(signature) == 0 {
		return errors.New(errors.KindNotAuthorized, fmt.Errorf("invalid %s header", HeaderSignature))
	}

	now := a.now()
	signedAt := time.Unix(timestamp, 0)
	if signedAt.Before(now.Add(-a.maxAge)) || signedAt.After(now.Add(a.maxAge)) {
		return errors.New(errors.KindNotAuthorized, fmt.Errorf("signature timestamp %d outside of the accepted window", timestamp))
	}

	message := RequestMessage(r.Method, r.URL.Path, timestamp, body)

	if err := a.verifier.VerifyCallerSignature(r.Context(), caller, keyIndex, message, signature); err != nil {
		if errors.KindOf(err) != 0 {
			return err
		}
		return errors.New(errors.KindNotAuthorized, err)
	}

	digest := sha3.Sum256(message)
	return a.spend(caller.Hex()+hex.EncodeToString(digest[:]), now)
}

// spend records a verified request, rejecting one seen before.
func (a *Authenticator) spend(request string, now time.Time) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	for s, at := range a.seen {
		if now.Sub(at) > 2*a.maxAge {
			delete(a.seen, s)
		}
	}

	if _, ok := a.seen[request]; ok {
		return errors.New(errors.KindNotAuthorized, fmt.Errorf("signed request already used"))
	}

	a.seen[request] = now

	return nil
}
