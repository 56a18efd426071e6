// Package gologger resolves the module's glog logging stack and bridges it
// into the go-job contracts the replay worker consumes.
package gologger

import (
	"strings"

	job "github.com/goliatone/go-job"
	glog "github.com/goliatone/go-logger/glog"
)

// Logger channel names used by the module. Request lifecycle output goes to
// the manager channel; the replay worker logs on its own channel so queue
// noise stays apart from request settlements.
const (
	ManagerLoggerName = "restmod"
	ReplayLoggerName  = "restmod.replay"
)

// Resolve applies deterministic precedence provider > logger > nop under
// the given channel name. An empty name selects the manager channel.
func Resolve(name string, provider glog.LoggerProvider, logger glog.Logger) (glog.LoggerProvider, glog.Logger) {
	if strings.TrimSpace(name) == "" {
		name = ManagerLoggerName
	}
	return glog.Resolve(name, provider, logger)
}

// ReplayLogging resolves the replay worker's logger pair and returns the
// go-job bridges for it alongside the glog logger.
func ReplayLogging(provider glog.LoggerProvider, logger glog.Logger) (glog.Logger, job.LoggerProvider, job.Logger) {
	resolvedProvider, resolvedLogger := Resolve(ReplayLoggerName, provider, logger)
	return resolvedLogger, job.GoLoggerProvider(resolvedProvider), job.GoLogger(resolvedLogger)
}
