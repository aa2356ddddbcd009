package concurrency

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/belugaiot/beluga/pkg/logger"
)

// SafeGo runs the function in a goroutine and recovers from panics. A panic
// is logged and terminates only the goroutine's own scope.
func SafeGo(ctx context.Context, fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				err := fmt.Errorf("panic recovered: %v", r)
				stack := string(debug.Stack())
				logger.L().ErrorContext(ctx, "goroutine panic", "error", err, "stack", stack)
			}
		}()
		fn()
	}()
}
