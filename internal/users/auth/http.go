// Copyright (c) 2026 Farmo. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/farmo/internal/platform/apperr"
	"github.com/taibuivan/farmo/internal/platform/constants"
	"github.com/taibuivan/farmo/internal/platform/middleware"
	requestutil "github.com/taibuivan/farmo/internal/platform/request"
	"github.com/taibuivan/farmo/internal/platform/respond"
	"github.com/taibuivan/farmo/internal/platform/validate"
	"github.com/taibuivan/farmo/internal/users/otp"
	"github.com/taibuivan/farmo/internal/users/session"
)

// # Definitions & Constructors

// Handler implements the authentication lifecycle HTTP endpoints.
type Handler struct {
	authService    *Service
	sessionService *session.Service
}

// NewHandler constructs a new [Handler] with its service dependencies.
func NewHandler(authService *Service, sessionService *session.Service) *Handler {
	return &Handler{
		authService:    authService,
		sessionService: sessionService,
	}
}

// Routes returns a [chi.Router] configured with authentication routes.
//
// # Endpoints
//   - POST /login           : Credentials in, session pair out.
//   - POST /resume          : "Remember me" re-entry by device tuple.
//   - POST /logout          : Retires the presented token.
//   - POST /logout-all      : Signs out everywhere (authenticated).
//   - POST /forgot-password : Issues a reset passcode.
//   - POST /verify-otp      : Checks (and consumes) a passcode.
//   - POST /reset-password  : Passcode-gated password replacement.
//   - POST /change-password : Current-password-gated replacement; activates
//     PENDING accounts.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	// Public endpoints
	router.Post("/login", handler.login)
	router.Post("/resume", handler.resume)
	router.Post("/logout", handler.logout)
	router.Post("/forgot-password", handler.forgotPassword)
	router.Post("/verify-otp", handler.verifyOTP)
	router.Post("/reset-password", handler.resetPassword)
	router.Post("/change-password", handler.changePassword)

	// Protected endpoints
	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Post("/logout-all", handler.logoutAll)
	})

	return router
}

// # Request Payloads

type loginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
	AdminLogin bool   `json:"admin_login"`
	DeviceInfo string `json:"device_info"`
}

type resumeRequest struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refresh_token"`
	UserID       string `json:"user_id"`
	DeviceInfo   string `json:"device_info"`
}

type forgotPasswordRequest struct {
	Identifier string `json:"identifier"`
}

type verifyOTPRequest struct {
	Identifier string `json:"identifier"`
	Purpose    string `json:"purpose"`
	Code       string `json:"code"`
}

type resetPasswordRequest struct {
	Identifier  string `json:"identifier"`
	Code        string `json:"code"`
	NewPassword string `json:"new_password"`
}

type changePasswordRequest struct {
	Identifier      string `json:"identifier"`
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

/*
Login authenticates a user and establishes a session.

POST /api/v1/auth/login

Description: Verifies credentials and returns a fresh token pair, applying
the per-principal device cap.

Request:
  - Body: loginRequest (Identifier, Password, AdminLogin, DeviceInfo)

Response:
  - 200: Grant: Session pair and user profile
  - 401: INVALID_CREDENTIALS: Unknown identifier or wrong password
  - 403: ACCOUNT_PENDING / ACCOUNT_NOT_ACTIVE: Account-state denial
  - 429: RATE_LIMITED: Failed-attempt budget exhausted
*/
func (handler *Handler) login(writer http.ResponseWriter, request *http.Request) {
	var input loginRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(session.FieldIdentifier, input.Identifier).
		Required(session.FieldPassword, input.Password)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	deviceInfo := input.DeviceInfo
	if deviceInfo == "" {
		deviceInfo = request.UserAgent()
	}

	grant, err := handler.sessionService.Login(request.Context(), session.LoginInput{
		Identifier: input.Identifier,
		Password:   input.Password,
		AdminLogin: input.AdminLogin,
		DeviceInfo: deviceInfo,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, grant)
}

/*
Resume re-establishes a "remember me" session.

POST /api/v1/auth/resume

Description: The full device tuple must match a stored session. A still-valid
pair returns unchanged; an expired pair is rotated.

Request:
  - Body: resumeRequest (Token, RefreshToken, UserID, DeviceInfo)

Response:
  - 200: Grant: Same or rotated pair (rotated flag set accordingly)
  - 401: INVALID_TOKEN: Tuple mismatch or retired session
*/
func (handler *Handler) resume(writer http.ResponseWriter, request *http.Request) {
	var input resumeRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(session.FieldToken, input.Token).
		Required(session.FieldRefreshToken, input.RefreshToken).
		Required(session.FieldUserID, input.UserID)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	grant, err := handler.sessionService.ResumeSession(request.Context(), session.ResumeInput{
		Token:        input.Token,
		RefreshToken: input.RefreshToken,
		PrincipalID:  input.UserID,
		DeviceInfo:   input.DeviceInfo,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, grant)
}

/*
Logout retires the presented session token.

POST /api/v1/auth/logout

Response:
  - 204: No Content: Session retired
  - 401: INVALID_TOKEN: No such session
*/
func (handler *Handler) logout(writer http.ResponseWriter, request *http.Request) {
	token := requestutil.BearerToken(request)
	if token == "" {
		respond.Error(writer, request, apperr.InvalidToken())
		return
	}

	if err := handler.sessionService.Logout(request.Context(), token); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

/*
LogoutAll signs the authenticated user out everywhere.

POST /api/v1/auth/logout-all

Response:
  - 204: No Content: All sessions retired
  - 401: ErrUnauthorized: Authentication required
*/
func (handler *Handler) logoutAll(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.sessionService.LogoutAll(request.Context(), userID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

/*
ForgotPassword initiates the password recovery flow.

POST /api/v1/auth/forgot-password

Description: Issues a passcode to the account's delivery address. The
response is the same whether or not the identifier exists.

Request:
  - Body: forgotPasswordRequest (Identifier)

Response:
  - 200: Success: Masked delivery address
  - 429: RATE_LIMITED: Issuance budget exhausted
*/
func (handler *Handler) forgotPassword(writer http.ResponseWriter, request *http.Request) {
	var input forgotPasswordRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	if input.Identifier == "" {
		respond.Error(writer, request, validate.RequiredError(session.FieldIdentifier, "This field is required"))
		return
	}

	masked, err := handler.authService.ForgotPassword(request.Context(), input.Identifier)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]string{
		session.FieldMessage: "If this account exists, a code has been sent to " + masked,
	})
}

/*
VerifyOTP checks a submitted passcode.

POST /api/v1/auth/verify-otp

Description: Consumes the code on success (single use).

Request:
  - Body: verifyOTPRequest (Identifier, Purpose, Code)

Response:
  - 200: Success: Code accepted
  - 404: OTP_NOT_FOUND / 410: OTP_EXPIRED, OTP_ALREADY_USED / 401: OTP_MISMATCH
*/
func (handler *Handler) verifyOTP(writer http.ResponseWriter, request *http.Request) {
	var input verifyOTPRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(session.FieldIdentifier, input.Identifier).
		Required(otp.FieldCode, input.Code).
		Digits(otp.FieldCode, input.Code, constants.OTPDigits).
		OneOf(otp.FieldPurpose, input.Purpose,
			string(otp.PurposeForgetPassword), string(otp.PurposeWalletPINReset))

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	err := handler.authService.VerifyCode(request.Context(), input.Identifier, otp.Purpose(input.Purpose), input.Code)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]string{
		session.FieldMessage: "Code verified",
	})
}

/*
ResetPassword completes the password recovery flow.

POST /api/v1/auth/reset-password

Description: Verifies the reset passcode, replaces the password, and signs
the account out everywhere.

Request:
  - Body: resetPasswordRequest (Identifier, Code, NewPassword)

Response:
  - 200: Success: Password updated
  - 404/410/401: Typed passcode denial
*/
func (handler *Handler) resetPassword(writer http.ResponseWriter, request *http.Request) {
	var input resetPasswordRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(session.FieldIdentifier, input.Identifier).
		Required(otp.FieldCode, input.Code).
		Digits(otp.FieldCode, input.Code, constants.OTPDigits).
		Required("new_password", input.NewPassword).
		MinLen("new_password", input.NewPassword, 8)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	err := handler.authService.ResetPassword(request.Context(), input.Identifier, input.Code, input.NewPassword)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]string{
		session.FieldMessage: "Password updated successfully",
	})
}

/*
ChangePassword replaces a password after verifying the current one.

POST /api/v1/auth/change-password

Description: Public so PENDING accounts can perform the change that activates
them. All sessions are revoked afterwards.

Request:
  - Body: changePasswordRequest (Identifier, CurrentPassword, NewPassword)

Response:
  - 200: Success: Password changed
  - 401: INVALID_CREDENTIALS: Wrong current password
*/
func (handler *Handler) changePassword(writer http.ResponseWriter, request *http.Request) {
	var input changePasswordRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(session.FieldIdentifier, input.Identifier).
		Required("current_password", input.CurrentPassword).
		Required("new_password", input.NewPassword).
		MinLen("new_password", input.NewPassword, 8)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	err := handler.authService.ChangePassword(request.Context(), input.Identifier, input.CurrentPassword, input.NewPassword)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]string{
		session.FieldMessage: "Password changed successfully",
	})
}
