package observability

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/riskibarqy/prediction-league/internal/config"
	"github.com/riskibarqy/prediction-league/internal/platform/logging"
)

// Stack holds the telemetry started for this process.
type Stack struct {
	logger          *logging.Logger
	shutdownTracing func(context.Context) error
	stopProfiler    func() error
	pprof           *http.Server
}

// Setup starts tracing, continuous profiling and the pprof listener as cfg
// asks. Anything already started is stopped again when a later step fails.
func Setup(cfg config.Config, logger *logging.Logger) (*Stack, error) {
	if logger == nil {
		logger = logging.Default()
	}
	s := &Stack{logger: logger.Named("observability")}

	var err error
	if s.shutdownTracing, err = InitUptrace(cfg, s.logger); err != nil {
		return nil, fmt.Errorf("init uptrace: %w", err)
	}
	if s.stopProfiler, err = InitPyroscope(cfg, s.logger); err != nil {
		_ = s.shutdownTracing(context.Background())
		return nil, fmt.Errorf("init pyroscope: %w", err)
	}
	s.pprof = StartPprofServer(cfg, s.logger)
	return s, nil
}

// Shutdown stops the pprof listener, then the profiler, then flushes traces.
func (s *Stack) Shutdown(ctx context.Context) error {
	if s == nil {
		return nil
	}
	var errs []error
	if err := StopPprofServer(ctx, s.pprof, s.logger); err != nil {
		errs = append(errs, fmt.Errorf("stop pprof: %w", err))
	}
	if s.stopProfiler != nil {
		if err := s.stopProfiler(); err != nil {
			errs = append(errs, fmt.Errorf("stop pyroscope: %w", err))
		}
	}
	if s.shutdownTracing != nil {
		if err := s.shutdownTracing(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown uptrace: %w", err))
		}
	}
	return errors.Join(errs...)
}
