package worker

import (
	"github.com/spec-kit/acquisitions/internal/service"
)

// StartSecurityLogWorker registers the security event handlers.
func StartSecurityLogWorker(securityLog *service.SecurityEventLogger) {
	if securityLog == nil {
		return
	}
	securityLog.RegisterHandlers()
}
