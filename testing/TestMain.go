package testing

import (
	"os"
	"sync"
	stdtesting "testing"
)

var once sync.Once

func ensureTestMode() {
	once.Do(func() {
		_ = os.Setenv("FINENTRY_TEST_MODE", "1")
		if os.Getenv("INVOICE_LOCK_ENABLED") == "" {
			_ = os.Setenv("INVOICE_LOCK_ENABLED", "false")
		}
	})
}

func init() {
	ensureTestMode()
}

func TestMain(m *stdtesting.M) {
	ensureTestMode()
	os.Exit(m.Run())
}
