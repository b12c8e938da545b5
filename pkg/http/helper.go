package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	apperrors "carrental/pkg/errors"
)

const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
)

// ExtractPage reads 1-based page/limit query parameters.
func ExtractPage(r *http.Request) (int, int, error) {
	query := r.URL.Query()

	page := 1
	if s := query.Get("page"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			return 0, 0, apperrors.InvalidInput("invalid page parameter: " + s)
		}
		page = max(1, v)
	}

	limit := 0
	if s := query.Get("limit"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			return 0, 0, apperrors.InvalidInput("invalid limit parameter: " + s)
		}
		limit = v
	}

	return page, NormalizeLimit(limit), nil
}

func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultPageLimit
	}
	return min(limit, MaxPageLimit)
}

// BearerToken returns the credential of an "Authorization: Bearer" header.
func BearerToken(r *http.Request) (string, bool) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return "", false
	}
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// RequireBearerToken is BearerToken for routes that always need a caller.
// It fails before the body is read so anonymous writes get 401.
func RequireBearerToken(r *http.Request) (string, error) {
	token, ok := BearerToken(r)
	if !ok {
		return "", apperrors.Unauthorized("Unauthorized")
	}
	return token, nil
}

// DecodeJSON decodes the request body into dst. An empty body decodes to
// the zero value.
func DecodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return apperrors.InvalidInput("request body too large")
	}
	return apperrors.InvalidInput("invalid JSON body: " + err.Error())
}
