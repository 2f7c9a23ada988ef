package logging

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/sirupsen/logrus"
)

// LoggingWrapper serves a plain net/http handler with a fresh LogData per
// request.
func LoggingWrapper(
	loggingName string,
	log logrus.FieldLogger,
	handler func(http.ResponseWriter, *http.Request, *LogData) error,
) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		logData := NewLogData(log)
		log.Debugf("Handler.%v.Start", loggingName)

		endTimer := logData.AddTiming("duration")
		err := handler(w, req.WithContext(WithLogData(req.Context(), logData)), logData)
		endTimer()
		if err != nil {
			logData.Log().WithError(err).Errorf("Handler.%v.Error", loggingName)
			return
		}

		logData.Log().Infof("Handler.%v.Complete", loggingName)
	}
}

// Middleware attaches a LogData to every huma operation and writes one log
// line when the operation finishes.
func Middleware(log logrus.FieldLogger) func(ctx huma.Context, next func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		logData := NewLogData(log)
		operationID := "unknown"
		if op := ctx.Operation(); op != nil {
			operationID = op.OperationID
		}
		logData.AddData("operation", operationID)

		endTimer := logData.AddTiming("duration")
		next(huma.WithContext(ctx, WithLogData(ctx.Context(), logData)))
		endTimer()

		status := ctx.Status()
		logData.AddData("status", status)
		entry := logData.Log()
		switch {
		case status >= http.StatusInternalServerError:
			entry.Errorf("Handler.%v.Error", operationID)
		case status >= http.StatusBadRequest:
			entry.Warnf("Handler.%v.Rejected", operationID)
		default:
			entry.Infof("Handler.%v.Complete", operationID)
		}
	}
}
