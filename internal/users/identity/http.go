// Copyright (c) 2026 Farmo. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package identity

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/farmo/internal/platform/middleware"
	requestutil "github.com/taibuivan/farmo/internal/platform/request"
	"github.com/taibuivan/farmo/internal/platform/respond"
	"github.com/taibuivan/farmo/internal/platform/sec"
	"github.com/taibuivan/farmo/internal/platform/validate"
)

// # Definitions & Constructors

// Handler implements account-related HTTP endpoints.
type Handler struct {
	identityService *Service
}

// NewHandler constructs a new [Handler] with its service dependency.
func NewHandler(service *Service) *Handler {
	return &Handler{identityService: service}
}

// Routes returns a [chi.Router] configured with account-specific routes.
//
// # Endpoints
//   - POST /register     : Creates a new self-service account.
//   - GET  /availability : Reports whether a phone number is free to register.
//   - GET  /me           : Returns the authenticated user's profile.
//   - POST /enroll       : Admin-only account creation (PENDING, generated password).
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	// Public endpoints
	router.Post("/register", handler.register)
	router.Get("/availability", handler.availability)

	// Protected endpoints
	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Get("/me", handler.me)
	})

	// Administrative endpoints
	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireRole(sec.RoleAdmin))
		r.Post("/enroll", handler.enroll)
	})

	return router
}

// # Request Payloads

type registerRequest struct {
	Phone    string `json:"phone"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type enrollRequest struct {
	Phone    string `json:"phone"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

/*
Register handles the creation of a new self-service account.

POST /api/v1/accounts/register

Description: Validates input, checks for phone conflicts, and persists a new
ACTIVATED account.

Request:
  - Body: registerRequest (Phone, FullName, Email, Password, Role)

Response:
  - 201: User: Created account profile
  - 400: ErrInvalidJSON: Bad input or validation failure
  - 409: ErrConflict: Phone number already registered
*/
func (handler *Handler) register(writer http.ResponseWriter, request *http.Request) {
	var input registerRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldPhone, input.Phone).
		Phone(FieldPhone, input.Phone).
		Required(FieldFullName, input.FullName).
		MaxLen(FieldFullName, input.FullName, 120).
		Required(FieldPassword, input.Password).
		MinLen(FieldPassword, input.Password, 8).
		OneOf(FieldRole, input.Role, string(sec.RoleConsumer), string(sec.RoleFarmer))

	if input.Email != "" {
		validator.Email(FieldEmail, input.Email)
	}

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.identityService.Register(request.Context(), RegisterInput{
		Phone:    input.Phone,
		FullName: input.FullName,
		Email:    input.Email,
		Password: input.Password,
		Role:     sec.Role(input.Role),
	})

	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, user)
}

/*
Availability reports whether a phone number is free for registration.

GET /api/v1/accounts/availability?phone=...

Response:
  - 200: {"available": bool}
  - 400: ErrValidation: Missing or malformed phone parameter
*/
func (handler *Handler) availability(writer http.ResponseWriter, request *http.Request) {
	phone := request.URL.Query().Get(FieldPhone)

	validator := &validate.Validator{}
	validator.Required(FieldPhone, phone).
		Phone(FieldPhone, phone)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	available, err := handler.identityService.PhoneAvailable(request.Context(), phone)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]bool{"available": available})
}

/*
Me returns the authenticated user's own profile.

GET /api/v1/accounts/me

Response:
  - 200: User: Account profile
  - 401: ErrUnauthorized: Authentication required
*/
func (handler *Handler) me(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.identityService.Profile(request.Context(), userID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user)
}

/*
Enroll creates an account on behalf of an administrator.

POST /api/v1/accounts/enroll

Description: The new account starts PENDING with a generated password that is
returned exactly once in the response.

Request:
  - Body: enrollRequest (Phone, FullName, Email, Role)

Response:
  - 201: Enrollment: Created account plus one-time generated password
  - 403: ErrForbidden: Caller lacks the admin role
  - 409: ErrConflict: Phone number already registered
*/
func (handler *Handler) enroll(writer http.ResponseWriter, request *http.Request) {
	var input enrollRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldPhone, input.Phone).
		Phone(FieldPhone, input.Phone).
		Required(FieldFullName, input.FullName).
		Required(FieldRole, input.Role)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	enrollment, err := handler.identityService.Enroll(request.Context(), EnrollInput{
		Phone:    input.Phone,
		FullName: input.FullName,
		Email:    input.Email,
		Role:     sec.Role(input.Role),
	})

	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, enrollment)
}
