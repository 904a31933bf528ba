package schedule

import (
	"testing"

	"go.uber.org/goleak"
)

// TestMain verifies no goroutines leak across the package tests. This
// catches tick loops that outlive Stop and watcher goroutines stuck on
// unresolved handles.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}
