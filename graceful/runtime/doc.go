// Package runtime provides panic recovery and safe goroutine helpers.
//
// Recovered panics are logged with their stack, counted in the
// panic_recovered_total metric and recorded on the active span. Production
// mode keeps stacks out of both.
package runtime
