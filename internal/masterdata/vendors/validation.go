package vendors

import (
	"fmt"
	"strings"

	internalShared "github.com/finentry/finentry/internal/shared"
)

func validate(in Input) error {
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("%w: name is required", internalShared.ErrValidation)
	}
	switch Kind(strings.ToLower(strings.TrimSpace(in.Type))) {
	case KindVendor, KindTransporter:
		return nil
	default:
		return fmt.Errorf("%w: type must be vendor or transporter", internalShared.ErrValidation)
	}
}

func kindOf(raw string) Kind {
	return Kind(strings.ToLower(strings.TrimSpace(raw)))
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
