package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
	"github.com/openkeyhub/governance/internal/database/types"
	"github.com/uptrace/bunrouter"
)

// decodeBody reads at most maxBytes of the request body into dst.
func decodeBody(w http.ResponseWriter, req bunrouter.Request, maxBytes int64, dst any) error {
	data, err := io.ReadAll(http.MaxBytesReader(w, req.Body, maxBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return fmt.Errorf("%w: request body exceeds %d bytes", types.ErrInvalidInput, tooLarge.Limit)
		}
		return fmt.Errorf("%w: failed to read request body", types.ErrInvalidInput)
	}

	if len(data) == 0 {
		return fmt.Errorf("%w: request body is required", types.ErrInvalidInput)
	}

	if err := sonic.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("%w: malformed request body: %w", types.ErrInvalidInput, err)
	}
	return nil
}

// queryInt parses an optional non-negative integer query parameter.
func queryInt(req bunrouter.Request, name string) (int, error) {
	raw := req.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}

	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("%w: %s must be a non-negative integer", types.ErrInvalidInput, name)
	}
	return v, nil
}

// parseDuration parses an optional Go duration string.
func parseDuration(name, raw string) (time.Duration, error) {
	if raw == "" {
		return 0, nil
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s is not a valid duration", types.ErrInvalidInput, name)
	}
	return d, nil
}
