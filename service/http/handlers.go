package http

import (
	"net/http"
	"strconv"

	"github.com/flow-hydraulics/flow-mint-proxy/service/app"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

// Mint a token for the signing caller
func HandleMint(logger *log.Logger, auth *Authenticator, app *app.App) http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		var reqMint ReqMint

		if err := auth.decodeSigned(r, &reqMint); err != nil {
			handleError(rw, logger, err)
			return
		}

		m, err := app.Mint(r.Context(), reqMint.Caller, reqMint.PaymentTransactionID)
		if err != nil {
			if m != nil {
				// Lets the caller look up how far the mint got
				rw.Header().Set("Location", mintLocation(r, m.ID))
			}
			handleError(rw, logger, err)
			return
		}

		rw.Header().Set("Location", mintLocation(r, m.ID))
		handleJsonResponse(rw, http.StatusCreated, ResMintFromApp(m))
	}
}

// List mints
func HandleListMints(logger *log.Logger, app *app.App) http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		limit, err := strconv.Atoi(r.FormValue("limit"))
		if err != nil {
			limit = 0
		}

		offset, err := strconv.Atoi(r.FormValue("offset"))
		if err != nil {
			offset = 0
		}

		list, err := app.ListMints(r.Context(), limit, offset)
		if err != nil {
			handleError(rw, logger, err)
			return
		}

		handleJsonResponse(rw, http.StatusOK, ResMintListFromApp(list))
	}
}

// Get mint details
func HandleGetMint(logger *log.Logger, app *app.App) http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		id, err := parseID(r)
		if err != nil {
			handleError(rw, logger, err)
			return
		}

		m, err := app.GetMint(r.Context(), id)
		if err != nil {
			handleError(rw, logger, err)
			return
		}

		handleJsonResponse(rw, http.StatusOK, ResMintFromApp(m))
	}
}

func HandleGetConfig(logger *log.Logger, app *app.App) http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		handleJsonResponse(rw, http.StatusOK, ResConfigFromApp(app.State()))
	}
}

func HandleGetIssuingAddress(logger *log.Logger, app *app.App) http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		handleJsonResponse(rw, http.StatusOK, ResAddress{app.IssuingAddress()})
	}
}

func HandleGetCatalogAddress(logger *log.Logger, app *app.App) http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		handleJsonResponse(rw, http.StatusOK, ResAddress{app.CatalogAddress()})
	}
}

func HandleGetMintPrice(logger *log.Logger, app *app.App) http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		handleJsonResponse(rw, http.StatusOK, ResMintPrice{app.MintPrice()})
	}
}

// Administrator only
func HandleSetIssuingAddress(logger *log.Logger, auth *Authenticator, app *app.App) http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		var req ReqSetAddress

		if err := auth.decodeSigned(r, &req); err != nil {
			handleError(rw, logger, err)
			return
		}

		if err := app.SetIssuingAddress(r.Context(), req.Caller, req.Address); err != nil {
			handleError(rw, logger, err)
			return
		}

		handleJsonResponse(rw, http.StatusOK, "Ok")
	}
}

// Administrator only
func HandleSetCatalogAddress(logger *log.Logger, auth *Authenticator, app *app.App) http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		var req ReqSetAddress

		if err := auth.decodeSigned(r, &req); err != nil {
			handleError(rw, logger, err)
			return
		}

		if err := app.SetCatalogAddress(r.Context(), req.Caller, req.Address); err != nil {
			handleError(rw, logger, err)
			return
		}

		handleJsonResponse(rw, http.StatusOK, "Ok")
	}
}

// Administrator only
func HandleSetMintPrice(logger *log.Logger, auth *Authenticator, app *app.App) http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		var req ReqSetMintPrice

		if err := auth.decodeSigned(r, &req); err != nil {
			handleError(rw, logger, err)
			return
		}

		if err := app.SetMintPrice(r.Context(), req.Caller, req.Price); err != nil {
			handleError(rw, logger, err)
			return
		}

		handleJsonResponse(rw, http.StatusOK, "Ok")
	}
}

// Administrator only
func HandleTransferAdministrator(logger *log.Logger, auth *Authenticator, app *app.App) http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		var req ReqTransferAdministrator

		if err := auth.decodeSigned(r, &req); err != nil {
			handleError(rw, logger, err)
			return
		}

		if err := app.TransferAdministrator(r.Context(), req.Caller, req.Administrator); err != nil {
			handleError(rw, logger, err)
			return
		}

		handleJsonResponse(rw, http.StatusOK, "Ok")
	}
}

func HandleHealthReady() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(http.StatusOK)
	}
}

func mintLocation(r *http.Request, id uuid.UUID) string {
	return "/" + mux.Vars(r)["apiVersion"] + "/mints/" + id.String()
}
