// Copyright (c) 2026 Farmo. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package wallet

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/farmo/internal/platform/constants"
	"github.com/taibuivan/farmo/internal/platform/middleware"
	requestutil "github.com/taibuivan/farmo/internal/platform/request"
	"github.com/taibuivan/farmo/internal/platform/respond"
	"github.com/taibuivan/farmo/internal/platform/validate"
)

// # Definitions & Constructors

// Handler implements wallet-related HTTP endpoints.
type Handler struct {
	walletService *Service
}

// NewHandler constructs a new [Handler] with its service dependency.
func NewHandler(service *Service) *Handler {
	return &Handler{walletService: service}
}

// Routes returns a [chi.Router] configured with wallet-specific routes.
// Every endpoint requires an authenticated session.
//
// # Endpoints
//   - GET  /            : Returns (creating if needed) the caller's wallet.
//   - POST /pin         : Sets or changes the transaction PIN.
//   - POST /pin/verify  : Checks a PIN before a payment.
//   - POST /pin/forgot  : Issues a PIN-reset passcode.
//   - POST /pin/reset   : Passcode-gated PIN replacement.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Use(middleware.RequireAuth)
	router.Get("/", handler.get)
	router.Post("/pin", handler.setPIN)
	router.Post("/pin/verify", handler.verifyPIN)
	router.Post("/pin/forgot", handler.forgotPIN)
	router.Post("/pin/reset", handler.resetPIN)

	return router
}

// # Request Payloads

type setPINRequest struct {
	CurrentPIN string `json:"current_pin"`
	NewPIN     string `json:"new_pin"`
}

type verifyPINRequest struct {
	PIN string `json:"pin"`
}

type resetPINRequest struct {
	Code   string `json:"code"`
	NewPIN string `json:"new_pin"`
}

/*
Get returns the caller's wallet, creating it on first access.

GET /api/v1/wallet

Response:
  - 200: Wallet: Hydrated wallet (PIN hash omitted)
  - 401: ErrUnauthorized: Authentication required
*/
func (handler *Handler) get(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	wallet, err := handler.walletService.Ensure(request.Context(), userID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, wallet)
}

/*
SetPIN sets or changes the transaction PIN.

POST /api/v1/wallet/pin

Request:
  - Body: setPINRequest (CurrentPIN, NewPIN)

Response:
  - 200: Success: PIN stored
  - 401: ErrUnauthorized: Wrong current PIN
*/
func (handler *Handler) setPIN(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input setPINRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldNewPIN, input.NewPIN).
		DigitsBetween(FieldNewPIN, input.NewPIN, constants.WalletPINMinDigits, constants.WalletPINMaxDigits)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.walletService.SetPIN(request.Context(), userID, input.CurrentPIN, input.NewPIN); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]string{
		FieldMessage: "Wallet PIN updated",
	})
}

/*
VerifyPIN checks a submitted PIN.

POST /api/v1/wallet/pin/verify

Request:
  - Body: verifyPINRequest (PIN)

Response:
  - 200: Success: PIN correct
  - 401: ErrUnauthorized: Wrong PIN or none set
*/
func (handler *Handler) verifyPIN(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input verifyPINRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	if err := handler.walletService.VerifyPIN(request.Context(), userID, input.PIN); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]string{
		FieldMessage: "PIN verified",
	})
}

/*
ForgotPIN issues a PIN-reset passcode to the caller's delivery address.

POST /api/v1/wallet/pin/forgot

Response:
  - 200: Success: Masked delivery address
  - 429: RATE_LIMITED: Issuance budget exhausted
*/
func (handler *Handler) forgotPIN(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	masked, err := handler.walletService.RequestPINReset(request.Context(), userID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]string{
		FieldMessage: "A code has been sent to " + masked,
	})
}

/*
ResetPIN replaces a forgotten PIN after passcode verification.

POST /api/v1/wallet/pin/reset

Request:
  - Body: resetPINRequest (Code, NewPIN)

Response:
  - 200: Success: PIN replaced
  - 404/410/401: Typed passcode denial
*/
func (handler *Handler) resetPIN(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input resetPINRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldCode, input.Code).
		Digits(FieldCode, input.Code, constants.OTPDigits).
		Required(FieldNewPIN, input.NewPIN).
		DigitsBetween(FieldNewPIN, input.NewPIN, constants.WalletPINMinDigits, constants.WalletPINMaxDigits)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.walletService.ResetPIN(request.Context(), userID, input.Code, input.NewPIN); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]string{
		FieldMessage: "Wallet PIN reset",
	})
}
