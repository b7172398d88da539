package router

import (
	"errors"
	"net/http"

	"github.com/patric-chuzhbe/usrinfo/internal/service"
)

type errorKind struct {
	target  error
	status  int
	message string
}

// errorKinds maps every domain error to the status and text the client gets.
// Anything not listed is an unexpected failure: 500 with the error text.
var errorKinds = []errorKind{
	{target: service.ErrNoUsers, status: http.StatusInternalServerError, message: "Ningun usuario se ha registrado"},
	{target: service.ErrDuplicateEmail, status: http.StatusInternalServerError, message: "Este email ya esta registrado"},
	{target: service.ErrEmailNotProvided, status: http.StatusInternalServerError, message: "No se ha introducido el email de ningun usuario"},
	{target: service.ErrUserNotFound, status: http.StatusInternalServerError, message: "Ningun usuario se ha registrado con este correo"},
	{target: service.ErrNoAdditionals, status: http.StatusInternalServerError, message: "No se ha proporcionado ninguna información adicional"},
	{target: service.ErrAdditionalMissing, status: http.StatusInternalServerError, message: "Error: Algo fallo"},
}

// resolveError returns the response status and message for err, and whether
// err is one of the known domain errors.
func resolveError(err error) (int, string, bool) {
	for _, kind := range errorKinds {
		if errors.Is(err, kind.target) {
			return kind.status, kind.message, true
		}
	}

	return http.StatusInternalServerError, err.Error(), false
}
