package v1

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"atelier-admin/internal/domain"
	"atelier-admin/pkg/logger"
	"atelier-admin/pkg/utils"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
)

var validate = validator.New()

func respond(w http.ResponseWriter, status int, data interface{}) {
	utils.WriteJSON(w, status, domain.Response{Success: true, Data: data})
}

// decode reads a JSON body into dst and validates its struct tags.
func decode(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return errBadInput
	}
	if err := validate.Struct(dst); err != nil {
		return validationError(err)
	}
	return nil
}

var errBadInput = errors.New("invalid input")

type invalidFieldsError struct {
	fields []string
}

func (e *invalidFieldsError) Error() string {
	return "invalid fields: " + strings.Join(e.fields, ", ")
}

func validationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return errBadInput
	}
	fields := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		fields = append(fields, fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag()))
	}
	return &invalidFieldsError{fields: fields}
}

// writeError maps usecase errors to status codes.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		invalidNumber *domain.InvalidNumberError
		remote        *domain.RemoteError
		invalidFields *invalidFieldsError
	)
	switch {
	case errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, domain.ErrGroupNotFound),
		errors.Is(err, domain.ErrRowNotFound):
		utils.WriteError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &invalidNumber):
		utils.WriteError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.As(err, &remote):
		utils.WriteError(w, http.StatusBadGateway, remote.Message)
	case errors.Is(err, domain.ErrExportDisabled):
		utils.WriteError(w, http.StatusNotImplemented, err.Error())
	case errors.As(err, &invalidFields),
		errors.Is(err, errBadInput),
		errors.Is(err, domain.ErrInvalidDirection),
		errors.Is(err, domain.ErrImageTooLarge),
		errors.Is(err, utils.ErrImageType),
		errors.Is(err, utils.ErrImageExtension):
		utils.WriteError(w, http.StatusBadRequest, err.Error())
	default:
		logger.WithContext(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("Request failed")
		utils.WriteError(w, http.StatusInternalServerError, "Internal server error")
	}
}
