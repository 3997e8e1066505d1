package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/FACorreiaa/go-cemetery-registry/internal/store"
	"github.com/FACorreiaa/go-cemetery-registry/internal/types"
)

var errInternal = &types.Error{Code: http.StatusInternalServerError, Key: "INTERNAL_ERROR"}

// StatusFor maps an error onto its HTTP status by kind.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, types.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, types.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, types.ErrValidation), errors.Is(err, store.ErrInvalidSort):
		return http.StatusBadRequest
	case errors.Is(err, types.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, types.ErrForbidden):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// WriteError renders err as the standard error body with a message
// localized from the request's Accept-Language header.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	e, ok := types.AsError(err)
	switch {
	case ok:
	case errors.Is(err, store.ErrInvalidSort):
		e = types.ErrValidationFailed.WithDetail("%s", err.Error())
	default:
		e = errInternal
	}

	msg := Localize(r, e.Key)
	if e.Detail != "" && status == http.StatusBadRequest {
		msg += ": " + e.Detail
	}
	WriteJSONResponse(w, r, status, types.ErrorBody{
		Code:      e.Code,
		Key:       e.Key,
		Message:   msg,
		RequestID: middleware.GetReqID(r.Context()),
	})
}

// WriteJSONResponse encodes the data to JSON and writes the response header and body.
func WriteJSONResponse(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	if status == http.StatusNoContent {
		w.WriteHeader(status)
		return
	}

	js, err := json.Marshal(data)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to marshal JSON response",
			slog.Any("error", err),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err = w.Write(js); err != nil {
		slog.ErrorContext(r.Context(), "Failed to write response body",
			slog.Any("error", err),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)
	}
}

// DecodeJSONBody reads and decodes a JSON request body safely.
func DecodeJSONBody(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	maxBytes := 1_048_576
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxBytes))

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	err := dec.Decode(dst)
	if err != nil {
		var syntaxError *json.SyntaxError
		var unmarshalTypeError *json.UnmarshalTypeError
		var invalidUnmarshalError *json.InvalidUnmarshalError
		var maxBytesError *http.MaxBytesError

		switch {
		case errors.As(err, &syntaxError):
			return fmt.Errorf("body contains badly-formed JSON (at character %d)", syntaxError.Offset)

		case errors.Is(err, io.ErrUnexpectedEOF):
			return errors.New("body contains badly-formed JSON")

		case errors.As(err, &unmarshalTypeError):
			if unmarshalTypeError.Field != "" {
				return fmt.Errorf("body contains incorrect JSON type for field %q (wanted %s)", unmarshalTypeError.Field, unmarshalTypeError.Type)
			}
			return fmt.Errorf("body contains incorrect JSON type (at character %d)", unmarshalTypeError.Offset)

		case errors.Is(err, io.EOF):
			return errors.New("body must not be empty")

		case strings.HasPrefix(err.Error(), "json: unknown field "):
			fieldName := strings.Trim(strings.TrimPrefix(err.Error(), "json: unknown field "), `"`)
			return fmt.Errorf("body contains unknown key %q", fieldName)

		case errors.As(err, &maxBytesError):
			return fmt.Errorf("body must not be larger than %d bytes", maxBytesError.Limit)

		case errors.As(err, &invalidUnmarshalError):
			panic(fmt.Errorf("developer error: invalid argument passed to json.Unmarshal: %w", err))

		default:
			return fmt.Errorf("error decoding JSON body: %w", err)
		}
	}

	err = dec.Decode(&struct{}{})
	if !errors.Is(err, io.EOF) {
		return errors.New("body must only contain a single JSON value")
	}

	return nil
}

// DecodeAndValidate decodes the body into dst and validates it. The returned
// error is always a *types.Error.
func DecodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	if err := DecodeJSONBody(w, r, dst); err != nil {
		return types.ErrValidationFailed.WithDetail("%s", err.Error())
	}
	return Validate(dst)
}

// PathID parses a positive numeric path parameter.
func PathID(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, types.ErrValidationFailed.WithDetail("%s must be a positive integer", name)
	}
	return id, nil
}

// ParsePageRequest reads page, size and sort query parameters. Sort follows
// the "field,desc" convention and may repeat; fields are mapped onto columns
// through sortable.
func ParsePageRequest(r *http.Request, sortable map[string]string) (store.PageRequest, error) {
	q := r.URL.Query()
	var req store.PageRequest

	if v := q.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return req, types.ErrValidationFailed.WithDetail("page must be a non-negative integer")
		}
		req.Page = n
	}
	if v := q.Get("size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return req, types.ErrValidationFailed.WithDetail("size must be a positive integer")
		}
		req.Size = n
	}

	for _, s := range q["sort"] {
		field, dir, _ := strings.Cut(s, ",")
		column, ok := sortable[strings.TrimSpace(field)]
		if !ok {
			return req, types.ErrValidationFailed.WithDetail("cannot sort by %q", field)
		}
		desc := strings.EqualFold(strings.TrimSpace(dir), "desc")
		req.Sort = append(req.Sort, store.Order{Column: column, Desc: desc})
	}
	return req, nil
}
