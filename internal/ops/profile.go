package ops

import (
	pyroscope "github.com/grafana/pyroscope-go"
	"github.com/yanun0323/errors"
)

type silentLogger struct{}

func (silentLogger) Infof(string, ...interface{})  {}
func (silentLogger) Debugf(string, ...interface{}) {}
func (silentLogger) Errorf(string, ...interface{}) {}

// StartProfiler attaches a pyroscope profiler when an address is
// configured. The returned stop function is nil-safe.
func StartProfiler(appName, serverAddr string, tags map[string]string) (stop func(), err error) {
	if serverAddr == "" {
		return func() {}, nil
	}

	profiler, err := pyroscope.Start(pyroscope.Config{
		ApplicationName: appName,
		ServerAddress:   serverAddr,
		Tags:            tags,
		Logger:          silentLogger{},
		ProfileTypes: []pyroscope.ProfileType{
			pyroscope.ProfileCPU,
			pyroscope.ProfileAllocObjects,
			pyroscope.ProfileAllocSpace,
			pyroscope.ProfileInuseObjects,
			pyroscope.ProfileInuseSpace,
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, "start pyroscope")
	}

	return func() {
		_ = profiler.Stop()
	}, nil
}
