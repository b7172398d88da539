package router

import (
	"encoding/json"
	"net/http"

	"github.com/patric-chuzhbe/usrinfo/internal/logger"
	"github.com/patric-chuzhbe/usrinfo/internal/models"
)

func writeJSON(res http.ResponseWriter, status int, body any) {
	res.Header().Set("Content-Type", "application/json")
	res.WriteHeader(status)

	if err := json.NewEncoder(res).Encode(body); err != nil {
		logger.Log.Errorw("error while encoding the response", "error", err)
	}
}

func writeData(res http.ResponseWriter, data any) {
	writeJSON(res, http.StatusOK, models.Envelope{
		Code: models.SuccessCode,
		Msg:  models.DataMsg{Data: data},
	})
}

func writeMessage(res http.ResponseWriter, message string) {
	writeJSON(res, http.StatusOK, models.Envelope{
		Code: models.SuccessCode,
		Msg:  message,
	})
}

func writeValidationErrors(res http.ResponseWriter, validationErrors []models.ValidationError) {
	writeJSON(res, http.StatusBadRequest, models.Envelope{
		Code: models.ErrorCode,
		Msg:  models.ValidationMsg{Errors: validationErrors},
	})
}

// writeError answers with the status and text errorKinds holds for err.
// Unexpected errors are logged.
func writeError(res http.ResponseWriter, req *http.Request, err error) {
	status, message, known := resolveError(err)
	if !known {
		logger.Log.Errorw(
			"request failed",
			"method", req.Method,
			"uri", req.RequestURI,
			"error", err,
		)
	}

	writeJSON(res, status, models.Envelope{
		Code: models.ErrorCode,
		Msg:  models.ErrorMsg{Error: message},
	})
}
