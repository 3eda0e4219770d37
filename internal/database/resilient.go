package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/counselhub/counselhub/internal/stats"
	"github.com/counselhub/counselhub/internal/types"
)

const (
	defaultStageTimeout = 3 * time.Second

	// FallbackMetric counts stage failures that caused the cascade to
	// advance to a fallback stage.
	FallbackMetric = "ResilientFallbacks"
)

// WriteOp is one logical write expressed as up to three strategies. Stages
// are attempted in declaration order; a nil stage is skipped. Every stage
// must apply the same idempotent write: a later stage may run after an
// earlier one partially applied.
type WriteOp struct {
	Name       string
	Direct     func(ctx context.Context) error
	Privileged func(ctx context.Context) error
	Raw        func(ctx context.Context) error
}

// ResilientWriter applies a WriteOp against a store whose row-policy or
// schema-cache state may transiently reject the straightforward path.
// Stage errors are logged, never returned individually; exhausting the
// cascade yields types.ErrUnavailable.
type ResilientWriter struct {
	log          *log.Logger
	stats        stats.StatsProvider
	stageTimeout time.Duration
}

func NewResilientWriter(logger *log.Logger, st stats.StatsProvider) *ResilientWriter {
	return &ResilientWriter{
		log:          logger,
		stats:        st,
		stageTimeout: defaultStageTimeout,
	}
}

func (w *ResilientWriter) Apply(ctx context.Context, op WriteOp) error {
	stages := []struct {
		name string
		fn   func(ctx context.Context) error
	}{
		{"direct", op.Direct},
		{"privileged", op.Privileged},
		{"raw", op.Raw},
	}

	for _, stage := range stages {
		if stage.fn == nil {
			continue
		}

		stageCtx, cancel := context.WithTimeout(ctx, w.stageTimeout)
		err := stage.fn(stageCtx)
		cancel()
		if err == nil {
			return nil
		}

		w.log.Printf("write %q: stage %s failed: %v", op.Name, stage.name, err)
		if w.stats != nil {
			w.stats.Incr(FallbackMetric)
		}
	}

	return fmt.Errorf("%w: write %q rejected by all stages", types.ErrUnavailable, op.Name)
}
