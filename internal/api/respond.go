package api

import (
	"encoding/json"
	"net/http"

	"github.com/jackhunterking/beautycanvas/pkg/errors"
)

// errorResponse is the wire shape of every error.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// httpStatusFor maps internal error codes to HTTP statuses, in one place so
// handlers never pick statuses ad hoc.
func httpStatusFor(code errors.Code) int {
	switch code {
	case errors.ErrCodeValidation:
		return http.StatusBadRequest
	case errors.ErrCodeNotFound, errors.ErrCodeJobNotFound, errors.ErrCodeProjectNotFound:
		return http.StatusNotFound
	case errors.ErrCodeInsufficientCredits:
		return http.StatusPaymentRequired
	case errors.ErrCodeTransientRemote:
		return http.StatusServiceUnavailable
	case errors.ErrCodePermanentRemote, errors.ErrCodeUploadFailed:
		return http.StatusBadGateway
	case errors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encode response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	s.writeJSON(w, httpStatusFor(code), errorResponse{
		Error: errors.UserMessage(err),
		Code:  string(code),
	})
}

// decodeBody reads a JSON request body into v.
func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.Wrap(errors.ErrCodeValidation, err, "decode request body")
	}
	return nil
}
