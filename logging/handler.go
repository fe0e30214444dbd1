package logging

import "net/http"

type debugLogger interface {
	Debugf(string, ...interface{})
}

func internalLogger(in CompatLogger) debugLogger {
	if l, ok := in.(Logger); ok {
		return l
	}
	return compatLoggerAdapter{in}
}

type compatLoggerAdapter struct {
	CompatLogger
}

// Debugf is part of the debugLogger interface.
func (a compatLoggerAdapter) Debugf(format string, v ...interface{}) {
	a.Printf(format, v...)
}

// statusRecorder captures the status code written by the wrapped
// handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(data []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(data)
}

type handler struct {
	next   http.Handler
	logger debugLogger
}

// Handler wraps next so every request is logged through the given
// CompatLogger at debug level.
func Handler(next http.Handler, compat CompatLogger) http.Handler {
	return &handler{next: next, logger: internalLogger(compat)}
}

func (h *handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	recorder := &statusRecorder{ResponseWriter: w}
	h.next.ServeHTTP(recorder, r)
	status := recorder.status
	if status == 0 {
		status = http.StatusOK
	}
	h.logger.Debugf("%s %s -> %d", r.Method, r.URL.Path, status)
}
