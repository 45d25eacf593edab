package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/sbilibin2017/xcellar-wallet/internal/logger"
	"github.com/sbilibin2017/xcellar-wallet/internal/models"
	"github.com/sbilibin2017/xcellar-wallet/internal/services"
)

//go:generate mockgen -source=register.go -destination=register_mock.go -package=handlers

// Registerer defines the interface that the service must implement.
type Registerer interface {
	Register(ctx context.Context, in services.RegisterInput) (*models.UserDB, error)
}

// RegisterRequest represents the JSON body for user registration
// swagger:model RegisterRequest
type RegisterRequest struct {
	// Email
	// required: true
	// default: ada@example.com
	Email string `json:"email" validate:"required,email,max=254"`

	// Password
	// required: true
	// default: secret123
	Password string `json:"password" validate:"required,min=8,max=72"`

	// Full name
	// default: Ada Obi
	FullName string `json:"full_name" validate:"required,max=200"`

	// Phone number in E.164 format
	// default: +2348012345678
	PhoneNumber string `json:"phone_number" validate:"omitempty,e164"`

	// USER or COURIER
	// default: USER
	UserType models.UserType `json:"user_type" validate:"required,oneof=USER COURIER"`
}

// NewRegisterHandler returns an HTTP handler for user registration.
// @Summary Register a new user
// @Description Creates a USER or COURIER account and its empty wallet. Password is hashed before storing.
// @Tags auth
// @Accept json
// @Produce json
// @Param registerRequest body handlers.RegisterRequest true "User registration request"
// @Success 201 {object} models.UserDB "User successfully registered"
// @Failure 400 {object} handlers.ErrorResponse "Invalid request"
// @Failure 409 {object} handlers.ErrorResponse "Email or phone already registered"
// @Router /api/v1/auth/register [post]
func NewRegisterHandler(svc Registerer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RegisterRequest
		if !decodeRequest(w, r, &req) {
			return
		}

		user, err := svc.Register(r.Context(), services.RegisterInput{
			Email:       req.Email,
			Password:    req.Password,
			FullName:    req.FullName,
			PhoneNumber: req.PhoneNumber,
			UserType:    req.UserType,
		})
		if err != nil {
			switch {
			case errors.Is(err, services.ErrUserAlreadyExists):
				writeError(w, http.StatusConflict, "Email or phone already registered")
			case errors.Is(err, services.ErrInvalidAccountType):
				writeError(w, http.StatusBadRequest, err.Error())
			default:
				logger.Log.Errorw("internal server error", "err", err)
				writeError(w, http.StatusInternalServerError, "Internal server error")
			}
			return
		}

		writeJSON(w, http.StatusCreated, user)
	}
}
