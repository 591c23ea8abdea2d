package shared

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	internalShared "github.com/finentry/finentry/internal/shared"
)

const maxBulkBody = 8 << 20

// DecodeOneOrMany decodes a body that is either a JSON object or an array
// of objects. Exactly one of the results is set.
func DecodeOneOrMany[T any](r *http.Request) (*T, []T, error) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxBulkBody))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: read body: %v", internalShared.ErrValidation, err)
	}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, nil, fmt.Errorf("%w: request body required", internalShared.ErrValidation)
	}
	if trimmed[0] == '[' {
		var many []T
		if err := json.Unmarshal(trimmed, &many); err != nil {
			return nil, nil, fmt.Errorf("%w: malformed json: %v", internalShared.ErrValidation, err)
		}
		return nil, many, nil
	}
	var one T
	if err := json.Unmarshal(trimmed, &one); err != nil {
		return nil, nil, fmt.Errorf("%w: malformed json: %v", internalShared.ErrValidation, err)
	}
	return &one, nil, nil
}
