package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/conorfennell/part66/internal/study"
	"github.com/conorfennell/part66/internal/sync"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

var (
	errBadRequest = errors.New("bad request")
	errNotFound   = errors.New("not found")
	errForbidden  = errors.New("forbidden")
	errConflict   = errors.New("conflict")
)

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor maps an error onto an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, study.ErrStore):
		return http.StatusInternalServerError
	case errors.Is(err, errBadRequest),
		errors.Is(err, study.ErrInvalidRequest),
		errors.Is(err, study.ErrInvalidRating),
		errors.Is(err, sync.ErrInvalidSource):
		return http.StatusBadRequest
	case errors.Is(err, errForbidden):
		return http.StatusForbidden
	case errors.Is(err, errNotFound),
		errors.Is(err, study.ErrModuleNotFound),
		errors.Is(err, study.ErrSessionNotFound),
		errors.Is(err, study.ErrUnknownCard):
		return http.StatusNotFound
	case errors.Is(err, errConflict),
		errors.Is(err, study.ErrSessionNotActive),
		errors.Is(err, study.ErrCardNotInSession),
		errors.Is(err, study.ErrProgressConflict),
		errors.Is(err, sync.ErrSourceExists):
		return http.StatusConflict
	case errors.Is(err, study.ErrNoCardsAvailable):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

// writeError sends err with its mapped status. Internal failures are logged
// and their details withheld from the client.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		msg = "internal server error"
	}
	writeJSON(w, status, errorBody{Error: msg})
}

// decode reads a JSON body into v and validates it.
func (s *Server) decode(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: invalid JSON body: %v", errBadRequest, err)
	}
	if err := s.validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
			}
			return fmt.Errorf("%w: %s", errBadRequest, strings.Join(fields, ", "))
		}
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}

// userHandler is a handler that needs the caller's identity.
type userHandler func(w http.ResponseWriter, r *http.Request, userID string)

// viewer returns the caller's identity, or "" for anonymous requests.
func viewer(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get(UserHeader))
}

// withUser rejects requests without an X-User-ID header.
func (s *Server) withUser(h userHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := viewer(r)
		if userID == "" {
			writeJSON(w, http.StatusUnauthorized, errorBody{Error: "missing " + UserHeader + " header"})
			return
		}
		h(w, r, userID)
	}
}

// withAdmin rejects anonymous callers and users not on the admin list.
func (s *Server) withAdmin(h userHandler) http.HandlerFunc {
	return s.withUser(func(w http.ResponseWriter, r *http.Request, userID string) {
		if !s.admins[userID] {
			s.logger.Warn("admin route refused", "path", r.URL.Path, "user_id", userID)
			s.writeError(w, r, fmt.Errorf("%w: admin access required", errForbidden))
			return
		}
		h(w, r, userID)
	})
}
