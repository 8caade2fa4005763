package telemetry

import (
	"errors"
	"fmt"
	"sync"

	"github.com/grafana/pyroscope-go"
	"go.uber.org/zap"
)

// ErrProfilerAddressRequired is returned when profiling is on without a server
var ErrProfilerAddressRequired = errors.New("profiler server address is required")

// Profiler pushes continuous profiles to a Pyroscope server
type Profiler struct {
	profiler *pyroscope.Profiler
	logger   *zap.Logger
	stopOnce sync.Once
}

// StartProfiler starts profiling when enabled. A disabled profiler is a
// valid value whose Stop does nothing.
func StartProfiler(enabled bool, serverAddress string, svc Service, logger *zap.Logger) (*Profiler, error) {
	p := &Profiler{logger: logger}
	if !enabled {
		return p, nil
	}
	if serverAddress == "" {
		return nil, ErrProfilerAddressRequired
	}

	profiler, err := pyroscope.Start(pyroscope.Config{
		ApplicationName: svc.Name,
		ServerAddress:   serverAddress,
		Logger:          pyroscopeLogger{logger.Named("pyroscope").Sugar()},
		Tags:            map[string]string{"env": svc.Env},
		ProfileTypes: []pyroscope.ProfileType{
			pyroscope.ProfileCPU,
			pyroscope.ProfileAllocObjects,
			pyroscope.ProfileAllocSpace,
			pyroscope.ProfileInuseObjects,
			pyroscope.ProfileInuseSpace,
			pyroscope.ProfileGoroutines,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start pyroscope profiler: %w", err)
	}
	p.profiler = profiler

	logger.Info("Pyroscope profiler started", zap.String("server_address", serverAddress))
	return p, nil
}

// IsEnabled reports whether profiles are being pushed
func (p *Profiler) IsEnabled() bool {
	return p.profiler != nil
}

// Stop flushes and stops the profiler. Safe to call more than once.
func (p *Profiler) Stop() error {
	if p.profiler == nil {
		return nil
	}
	var err error
	p.stopOnce.Do(func() {
		if stopErr := p.profiler.Stop(); stopErr != nil {
			err = fmt.Errorf("failed to stop profiler: %w", stopErr)
			return
		}
		p.logger.Info("Pyroscope profiler stopped")
	})
	return err
}

type pyroscopeLogger struct {
	s *zap.SugaredLogger
}

func (l pyroscopeLogger) Infof(format string, args ...any)  { l.s.Infof(format, args...) }
func (l pyroscopeLogger) Debugf(format string, args ...any) { l.s.Debugf(format, args...) }
func (l pyroscopeLogger) Errorf(format string, args ...any) { l.s.Errorf(format, args...) }
