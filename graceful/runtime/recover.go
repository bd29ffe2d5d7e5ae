package runtime

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/LerianStudio/lib-http-shutdown/graceful/log"
)

// Logger defines the minimal logging interface required by runtime.
// It is satisfied by graceful/log.Logger.
type Logger interface {
	Log(ctx context.Context, level log.Level, msg string, fields ...log.Field)
}

// RecoverAndLog recovers from a panic, logs it with the stack trace, and
// continues execution. Use it in defer statements.
func RecoverAndLog(logger Logger, name string) {
	if r := recover(); r != nil {
		logPanicWithStack(context.Background(), logger, name, r, debug.Stack())
	}
}

// RecoverAndLogWithContext is like RecoverAndLog but also records the panic
// metric and a span event.
//
//	defer runtime.RecoverAndLogWithContext(ctx, logger, "shutdown", "destroy_callback")
func RecoverAndLogWithContext(ctx context.Context, logger Logger, component, name string) {
	if r := recover(); r != nil {
		stack := debug.Stack()
		logPanicWithStack(ctx, logger, name, r, stack)
		recordPanicObservability(ctx, r, stack, component, name)
	}
}

// RecoverWithPolicyAndContext recovers from a panic and handles it according to policy.
func RecoverWithPolicyAndContext(ctx context.Context, logger Logger, component, name string, policy PanicPolicy) {
	if recovered := recover(); recovered != nil {
		stack := debug.Stack()
		logPanicWithStack(ctx, logger, name, recovered, stack)
		recordPanicObservability(ctx, recovered, stack, component, name)

		if policy == CrashProcess {
			panic(recovered)
		}
	}
}

// HandlePanicValue processes a panic value that was already recovered by an
// external mechanism, such as Fiber's recover middleware. It does not call
// recover() itself.
func HandlePanicValue(ctx context.Context, logger Logger, panicValue any, component, name string) {
	if panicValue == nil {
		return
	}

	stack := debug.Stack()
	logPanicWithStack(ctx, logger, name, panicValue, stack)
	recordPanicObservability(ctx, panicValue, stack, component, name)
}

// SafeGo launches fn in a goroutine guarded by panic recovery.
func SafeGo(logger Logger, name string, policy PanicPolicy, fn func()) {
	go func() {
		defer RecoverWithPolicyAndContext(context.Background(), logger, "", name, policy)

		fn()
	}()
}

// SafeGoWithContextAndComponent launches fn in a goroutine guarded by panic
// recovery with full observability for component/name.
func SafeGoWithContextAndComponent(
	ctx context.Context,
	logger Logger,
	component, name string,
	policy PanicPolicy,
	fn func(ctx context.Context),
) {
	if ctx == nil {
		ctx = context.Background()
	}

	go func() {
		defer RecoverWithPolicyAndContext(ctx, logger, component, name, policy)

		fn(ctx)
	}()
}

// logPanicWithStack logs the panic with a pre-captured stack trace.
func logPanicWithStack(ctx context.Context, logger Logger, name string, panicValue any, stack []byte) {
	if logger == nil {
		return
	}

	fields := []log.Field{
		log.String("source", name),
		log.String("panic_value", formatPanicValue(panicValue)),
	}

	if !IsProductionMode() {
		fields = append(fields, log.String("stack_trace", string(stack)))
	}

	logger.Log(ctx, log.LevelError, "panic recovered", fields...)
}

// recordPanicObservability counts the panic and records it on the span in ctx.
func recordPanicObservability(ctx context.Context, panicValue any, stack []byte, component, name string) {
	recordPanicMetric(ctx, component, name)
	RecordPanicToSpanWithComponent(ctx, panicValue, stack, component, name)
}

// formatPanicValue formats a panic value as a string.
func formatPanicValue(value any) string {
	if value == nil {
		return "<nil>"
	}

	switch val := value.(type) {
	case string:
		return val
	case error:
		return val.Error()
	default:
		return fmt.Sprintf("%v", value)
	}
}
