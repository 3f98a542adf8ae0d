package http

import (
	"net/http"

	"github.com/flow-hydraulics/flow-mint-proxy/service/app"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

// NewRouter serves the proxy API. Requests that change state or mint must be
// signed by their caller, see Authenticator.
func NewRouter(logger *log.Logger, auth *Authenticator, app *app.App) http.Handler {
	r := mux.NewRouter()

	// Catch the api version
	rv := r.PathPrefix("/{apiVersion}").Subrouter()

	rv.HandleFunc("/health/ready", HandleHealthReady()).Methods(http.MethodGet)

	rv.HandleFunc("/mint", HandleMint(logger, auth, app)).Methods(http.MethodPost)
	rv.HandleFunc("/mints", HandleListMints(logger, app)).Methods(http.MethodGet)
	rv.HandleFunc("/mints/{id}", HandleGetMint(logger, app)).Methods(http.MethodGet)

	rv.HandleFunc("/config", HandleGetConfig(logger, app)).Methods(http.MethodGet)
	rv.HandleFunc("/config/issuing-address", HandleGetIssuingAddress(logger, app)).Methods(http.MethodGet)
	rv.HandleFunc("/config/issuing-address", HandleSetIssuingAddress(logger, auth, app)).Methods(http.MethodPut)
	rv.HandleFunc("/config/catalog-address", HandleGetCatalogAddress(logger, app)).Methods(http.MethodGet)
	rv.HandleFunc("/config/catalog-address", HandleSetCatalogAddress(logger, auth, app)).Methods(http.MethodPut)
	rv.HandleFunc("/config/mint-price", HandleGetMintPrice(logger, app)).Methods(http.MethodGet)
	rv.HandleFunc("/config/mint-price", HandleSetMintPrice(logger, auth, app)).Methods(http.MethodPut)
	rv.HandleFunc("/config/administrator", HandleTransferAdministrator(logger, auth, app)).Methods(http.MethodPut)

	// Use middleware
	h := UseCors(r)
	h = UseLogging(logger.Writer(), h)
	h = UseCompress(h)
	h = UseJson(h)

	return h
}
