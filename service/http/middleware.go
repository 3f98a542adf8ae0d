package http

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"

	"github.com/flow-hydraulics/flow-mint-proxy/service/errors"
	"github.com/google/uuid"
	gorilla "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

func UseCors(h http.Handler) http.Handler {
	return gorilla.CORS(gorilla.AllowedOrigins([]string{"*"}))(h)
}

func UseLogging(out io.Writer, h http.Handler) http.Handler {
	return gorilla.CombinedLoggingHandler(out, h)
}

func UseCompress(h http.Handler) http.Handler {
	return gorilla.CompressHandler(h)
}

func UseJson(h http.Handler) http.Handler {
	// Only PUT, POST, and PATCH requests are considered.
	return gorilla.ContentTypeHandler(h, "application/json")
}

var kindStatus = map[errors.Kind]int{
	errors.KindNotAuthorized:          http.StatusForbidden,
	errors.KindReentrantCall:          http.StatusConflict,
	errors.KindBadMintValue:           http.StatusPaymentRequired,
	errors.KindNoAssetsDefined:        http.StatusUnprocessableEntity,
	errors.KindTooManyAssetsDefined:   http.StatusUnprocessableEntity,
	errors.KindMintingError:           http.StatusBadGateway,
	errors.KindAddTokenAssetError:     http.StatusBadGateway,
	errors.KindOwnershipTransferError: http.StatusBadGateway,
	errors.KindRemoteError:            http.StatusBadGateway,
	errors.KindEnvironmentError:       http.StatusInternalServerError,
	errors.KindInvalidInput:           http.StatusBadRequest,
}

// requestError marks a request that could not be decoded or parsed.
type requestError struct {
	err error
}

func (e *requestError) Error() string {
	return e.err.Error()
}

func (e *requestError) Unwrap() error {
	return e.err
}

func badRequest(err error) error {
	return &requestError{err}
}

// handleError is a helper function for unified HTTP error handling.
// Proxy errors are reported by kind only, their cause stays in the logs.
func handleError(rw http.ResponseWriter, logger *log.Logger, err error) {
	if logger != nil {
		logger.WithError(err).WithField("cause", stderrors.Unwrap(err)).Warn("Request failed")
	}

	if kind := errors.KindOf(err); kind != 0 {
		status, ok := kindStatus[kind]
		if !ok {
			status = http.StatusInternalServerError
		}
		http.Error(rw, kind.String(), status)
		return
	}

	var reqErr *requestError
	if stderrors.As(err, &reqErr) {
		http.Error(rw, reqErr.Error(), http.StatusBadRequest)
		return
	}

	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		http.Error(rw, "record not found", http.StatusNotFound)
		return
	}

	http.Error(rw, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

// handleJsonResponse is a helper function for unified JSON response handling.
func handleJsonResponse(rw http.ResponseWriter, status int, res interface{}) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(status)
	json.NewEncoder(rw).Encode(res)
}

func checkNonEmptyBody(r *http.Request) error {
	if r.Body == nil || r.Body == http.NoBody {
		return fmt.Errorf("empty body")
	}
	return nil
}

func parseID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		return uuid.Nil, badRequest(err)
	}
	return id, nil
}
