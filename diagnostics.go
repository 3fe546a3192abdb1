package eventsink

import (
	"os"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

var (
	defaultReportInterval = time.Second
	defaultReportBurst    = 5
)

// diagnostics routes sink failures away from the caller. A configured error
// handler receives every failure; otherwise failures are logged to stderr at a
// bounded rate so a full disk cannot flood the process output.
type diagnostics struct {
	errorHandler func(error)
	log          logrus.FieldLogger
	limiter      *rate.Limiter
	suppressed   atomic.Int64
}

func newDiagnostics(handler func(error), log logrus.FieldLogger) *diagnostics {
	if log == nil {
		l := logrus.New()
		l.SetOutput(os.Stderr)
		log = l
	}
	return &diagnostics{
		errorHandler: handler,
		log:          log,
		limiter:      rate.NewLimiter(rate.Every(defaultReportInterval), defaultReportBurst),
	}
}

func (d *diagnostics) report(sink string, err error) {
	if err == nil {
		return
	}
	if d.errorHandler != nil {
		d.errorHandler(err)
		return
	}
	if !d.limiter.Allow() {
		d.suppressed.Add(1)
		return
	}

	entry := d.log.WithError(err).WithField("sink", sink)
	if n := d.suppressed.Swap(0); n > 0 {
		entry = entry.WithField("suppressed", n)
	}
	entry.Warn("event sink failure")
}
