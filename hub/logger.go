package hub

import (
	"github.com/brutella/hc/log"
)

// restyLogger routes resty diagnostics to the process log.
type restyLogger struct{}

func (restyLogger) Errorf(format string, v ...interface{}) {
	log.Info.Printf("http: "+format, v...)
}

func (restyLogger) Warnf(format string, v ...interface{}) {
	log.Info.Printf("http: "+format, v...)
}

func (restyLogger) Debugf(format string, v ...interface{}) {
	log.Debug.Printf("http: "+format, v...)
}
