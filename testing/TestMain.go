// Package testing switches the binaries into test mode when blank imported
// by a test package.
package testing

import (
	"os"
	"sync"
	stdtesting "testing"
)

var once sync.Once

func ensureTestMode() {
	once.Do(func() {
		_ = os.Setenv("GYMCORE_TEST_MODE", "1")
		if os.Getenv("RESEND_API_KEY") != "" {
			// Never deliver real mail from a test run.
			_ = os.Unsetenv("RESEND_API_KEY")
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
