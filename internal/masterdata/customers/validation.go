package customers

import (
	"fmt"
	"strings"

	internalShared "github.com/finentry/finentry/internal/shared"
)

func validate(in Input) error {
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("%w: name is required", internalShared.ErrValidation)
	}
	return nil
}

func optional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
