package items

import (
	"fmt"
	"strings"

	"github.com/finentry/finentry/internal/ledger"
	internalShared "github.com/finentry/finentry/internal/shared"
)

func (s *Service) validate(in Input) error {
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.Unit) == "" {
		return fmt.Errorf("%w: name and unit are required", internalShared.ErrValidation)
	}
	if _, _, err := ledger.ParseTaxType(in.DefaultTaxType); err != nil {
		return err
	}
	return nil
}

func taxTypeOrNone(raw string) ledger.TaxType {
	t, ok, err := ledger.ParseTaxType(raw)
	if err != nil || !ok {
		return ledger.TaxNone
	}
	return t
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
