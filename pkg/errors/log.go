package errors

import (
	"github.com/golang/glog"
)

// LogHandler is an ErrorHandler that logs errors through glog.
type LogHandler struct {
	// Verbose enables detailed output including stack traces.
	Verbose bool
}

// HandleError logs a PropError.
func (h *LogHandler) HandleError(err *PropError) {
	if err == nil {
		return
	}
	if err.Container != "" {
		glog.Errorf("[props error] %s [%s] container=%s: %v", err.Op, err.Kind, err.Container, err.Err)
	} else {
		glog.Errorf("[props error] %s [%s]: %v", err.Op, err.Kind, err.Err)
	}
}

// HandleListenerError logs a ListenerError.
func (h *LogHandler) HandleListenerError(err *ListenerError) {
	if err == nil {
		return
	}
	if err.Recovered != nil {
		glog.Warningf("[props listener] panic in %s: %v", err.Desc, err.Recovered)
	} else {
		glog.Warningf("[props listener] %s failed: %v", err.Desc, err.Err)
	}
	if h.Verbose && err.StackTrace != "" {
		glog.Warningf("Stack trace:\n%s", err.StackTrace)
	}
}
