package httputil

import (
	"encoding/json"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
)

// Parse fills v from the request: path parameters via `path:"name"` tags
// (chi.URLParam), query parameters via `form:"name"` tags, and a JSON body
// when one is present.
func Parse(r *http.Request, v any) error {
	val := reflect.ValueOf(v)
	if val.Kind() != reflect.Ptr || val.IsNil() {
		return nil
	}
	val = val.Elem()
	if val.Kind() != reflect.Struct {
		return nil
	}

	typ := val.Type()
	for i := 0; i < val.NumField(); i++ {
		field := val.Field(i)
		if !field.CanSet() {
			continue
		}
		sf := typ.Field(i)
		if tag := sf.Tag.Get("path"); tag != "" {
			if pv := chi.URLParam(r, tag); pv != "" {
				setField(field, pv)
			}
		}
		if tag := sf.Tag.Get("form"); tag != "" {
			if qv := r.URL.Query().Get(tag); qv != "" {
				setField(field, qv)
			}
		}
	}

	if r.Body != nil && r.ContentLength > 0 {
		ct := r.Header.Get("Content-Type")
		if ct == "" || strings.HasPrefix(ct, "application/json") {
			if err := json.NewDecoder(r.Body).Decode(v); err != nil {
				return err
			}
		}
	}
	return nil
}

func setField(field reflect.Value, value string) {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if i, err := strconv.ParseInt(value, 10, 64); err == nil {
			field.SetInt(i)
		}
	case reflect.Bool:
		if b, err := strconv.ParseBool(value); err == nil {
			field.SetBool(b)
		}
	}
}

// PathVar returns a path variable from the request (chi.URLParam wrapper)
func PathVar(r *http.Request, name string) string {
	return chi.URLParam(r, name)
}

// QueryInt returns a query parameter as int with a default value
func QueryInt(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	if i, err := strconv.Atoi(val); err == nil {
		return i
	}
	return defaultVal
}

// QueryString returns a query parameter as string with a default value
func QueryString(r *http.Request, name string, defaultVal string) string {
	if val := r.URL.Query().Get(name); val != "" {
		return val
	}
	return defaultVal
}

// OkJSON writes a JSON response with 200 OK status
func OkJSON(w http.ResponseWriter, v any) {
	WriteJSON(w, http.StatusOK, v)
}

// WriteJSON writes a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// ErrorResponse is the standard error response format
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Error writes a 400 error response from an error value
func Error(w http.ResponseWriter, err error) {
	ErrorWithCode(w, http.StatusBadRequest, err.Error())
}

// ErrorWithCode writes an error response with a specific status code
func ErrorWithCode(w http.ResponseWriter, code int, message string) {
	WriteJSON(w, code, ErrorResponse{Code: code, Message: message})
}

// BadRequest writes a 400 bad request response
func BadRequest(w http.ResponseWriter, message string) {
	if message == "" {
		message = "bad request"
	}
	ErrorWithCode(w, http.StatusBadRequest, message)
}

// NotFound writes a 404 not found response
func NotFound(w http.ResponseWriter, message string) {
	if message == "" {
		message = "not found"
	}
	ErrorWithCode(w, http.StatusNotFound, message)
}

// Conflict writes a 409 conflict response
func Conflict(w http.ResponseWriter, message string) {
	if message == "" {
		message = "conflict"
	}
	ErrorWithCode(w, http.StatusConflict, message)
}

// InternalError writes a 500 internal server error response
func InternalError(w http.ResponseWriter, message string) {
	if message == "" {
		message = "internal server error"
	}
	ErrorWithCode(w, http.StatusInternalServerError, message)
}
