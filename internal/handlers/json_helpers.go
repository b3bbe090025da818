package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"strconv"
	"time"

	"github.com/google/uuid"

	"academy-portal/internal/service"
)

// maxBodyBytes bounds every JSON request body
const maxBodyBytes = 1 << 20

// JSONResponse sends a JSON response and ensures slices are never null.
// Frontends iterate over list fields without null checks, so nil slices are
// encoded as [] at every depth.
func JSONResponse(w http.ResponseWriter, data any) error {
	return json.NewEncoder(w).Encode(normalizeSlices(data))
}

var timeType = reflect.TypeOf(time.Time{})

// normalizeSlices recursively ensures all nil slices become empty slices
func normalizeSlices(data any) any {
	if data == nil {
		return nil
	}
	v := reflect.ValueOf(data)
	return normalizeValue(v).Interface()
}

func normalizeValue(v reflect.Value) reflect.Value {
	switch v.Kind() {
	case reflect.Ptr:
		if v.IsNil() || v.Elem().Type() == timeType {
			return v
		}
		out := reflect.New(v.Elem().Type())
		out.Elem().Set(normalizeValue(v.Elem()))
		return out

	case reflect.Slice:
		if v.IsNil() {
			return reflect.MakeSlice(v.Type(), 0, 0)
		}
		if v.Type().Elem().Kind() == reflect.Uint8 {
			return v
		}
		out := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
		for i := 0; i < v.Len(); i++ {
			out.Index(i).Set(normalizeValue(v.Index(i)))
		}
		return out

	case reflect.Struct:
		if v.Type() == timeType {
			return v
		}
		out := reflect.New(v.Type()).Elem()
		for i := 0; i < v.NumField(); i++ {
			if !v.Type().Field(i).IsExported() {
				continue
			}
			out.Field(i).Set(normalizeValue(v.Field(i)))
		}
		return out
	}
	return v
}

func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := JSONResponse(w, payload); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

// validationResponse is the 400 body for rejected input
type validationResponse struct {
	Error  string               `json:"error"`
	Fields []service.FieldError `json:"fields"`
}

// respondWithServiceError maps service errors to HTTP status codes. Unknown
// errors are logged and answered with a generic 500.
func respondWithServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *service.ValidationError
	if errors.As(err, &ve) {
		respondWithJSON(w, http.StatusBadRequest, validationResponse{Error: ErrMsgValidation, Fields: ve.Fields})
		return
	}

	switch {
	case errors.Is(err, service.ErrNotFound):
		respondWithError(w, http.StatusNotFound, ErrMsgNotFound)
	case errors.Is(err, service.ErrForbidden):
		respondWithError(w, http.StatusForbidden, ErrMsgPermissionDenied)
	case errors.Is(err, service.ErrInvalidCredentials):
		respondWithError(w, http.StatusUnauthorized, ErrMsgInvalidCredentials)
	case errors.Is(err, service.ErrUserInactive):
		respondWithError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrNotEntryTest):
		respondWithError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrCompetitionClosed),
		errors.Is(err, service.ErrFormClosed),
		errors.Is(err, service.ErrQuizClosed),
		errors.Is(err, service.ErrRetakeNotAllowed),
		errors.Is(err, service.ErrTimeLimitExceeded),
		errors.Is(err, service.ErrLastAdmin):
		respondWithError(w, http.StatusConflict, err.Error())
	default:
		slog.Error("Request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		respondWithError(w, http.StatusInternalServerError, ErrMsgInternal)
	}
}

// decodeJSON reads a bounded JSON body into dst, rejecting unknown fields
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidRequestBody)
		return false
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidRequestBody)
		return false
	}
	return true
}

// pathID parses the {name} path value as a UUID
func pathID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Invalid %s", name))
		return uuid.Nil, false
	}
	return id, true
}

// queryID parses an optional UUID query parameter
func queryID(w http.ResponseWriter, r *http.Request, name string) (*uuid.UUID, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Invalid %s", name))
		return nil, false
	}
	return &id, true
}

// queryBool reads a boolean query parameter, falling back to def
func queryBool(r *http.Request, name string, def bool) bool {
	if b, err := strconv.ParseBool(r.URL.Query().Get(name)); err == nil {
		return b
	}
	return def
}

// respondWithFile sends a download with the given content type
func respondWithFile(w http.ResponseWriter, contentType, filename string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func respondWithPDF(w http.ResponseWriter, r *http.Request, filename string, data []byte, err error) {
	if err != nil {
		slog.Error("Failed to render PDF", "path", r.URL.Path, "error", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to render document")
		return
	}
	respondWithFile(w, "application/pdf", filename, data)
}
