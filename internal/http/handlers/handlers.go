package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/mail"
	"regexp"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/martagil/gestor-be/internal/http/respond"
	"github.com/martagil/gestor-be/internal/storage"
)

// Field bounds match the backing schema.
const (
	maxUsernameLen    = 20
	maxNombreLen      = 20
	maxApellidosLen   = 50
	maxEmailLen       = 50
	maxProjectNameLen = 20
	minPasswordLen    = 8
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// storeError maps storage sentinel errors onto API responses. Unexpected
// errors are logged and reported as a generic message so internals never
// reach the client.
func storeError(w http.ResponseWriter, logger *zap.Logger, err error, action string) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		respond.Error(w, http.StatusNotFound, "resource not found")
	case errors.Is(err, storage.ErrAlreadyExists):
		respond.Error(w, http.StatusConflict, "duplicate value for a unique field")
	case errors.Is(err, storage.ErrProtectedUser):
		respond.Error(w, http.StatusForbidden, "the admin account cannot be deleted")
	case errors.Is(err, storage.ErrHasProjects):
		respond.Error(w, http.StatusConflict, "user still owns projects")
	default:
		logger.Error(action, zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "unexpected error")
	}
}

func validateUsername(username string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return errors.New("username is required")
	}
	if utf8.RuneCountInString(username) > maxUsernameLen {
		return fmt.Errorf("username must be at most %d characters", maxUsernameLen)
	}
	if !usernamePattern.MatchString(username) {
		return errors.New("username may only contain letters, digits, '_', '.' and '-'")
	}
	return nil
}

func validateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return errors.New("email is required")
	}
	if utf8.RuneCountInString(email) > maxEmailLen {
		return fmt.Errorf("email must be at most %d characters", maxEmailLen)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return errors.New("email is not valid")
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < minPasswordLen || !utf8.ValidString(password) {
		return fmt.Errorf("password must be at least %d characters", minPasswordLen)
	}
	return nil
}

func validateBoundedText(field, value string, required bool, max int) error {
	value = strings.TrimSpace(value)
	if value == "" {
		if required {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
	if utf8.RuneCountInString(value) > max {
		return fmt.Errorf("%s must be at most %d characters", field, max)
	}
	return nil
}
