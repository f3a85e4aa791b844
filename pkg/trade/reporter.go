package trade

import (
	"context"
	"fmt"
)

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(ctx context.Context, o Outcome) error

func (f ReporterFunc) Report(ctx context.Context, o Outcome) error { return f(ctx, o) }

type named interface{ Name() string }

func reporterName(r Reporter) string {
	if n, ok := r.(named); ok {
		return n.Name()
	}
	return fmt.Sprintf("%T", r)
}
