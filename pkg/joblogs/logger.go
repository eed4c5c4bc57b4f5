package joblogs

import (
	"context"
	"runtime/debug"

	"github.com/robinjoseph08/golib/logger"
	"github.com/segmentio/encoding/json"

	"github.com/libsync/libsync/pkg/models"
)

const maxDataValueLen = 4096

// JobLogger wraps logging to both stdout and the job_logs table, so
// refresh progress and failure detail stay inspectable over the API.
type JobLogger struct {
	jobID   string
	service *Service
	log     logger.Logger
	ctx     context.Context
}

// NewJobLogger creates a new JobLogger for a specific job.
func (svc *Service) NewJobLogger(ctx context.Context, jobID string, log logger.Logger) *JobLogger {
	return &JobLogger{
		jobID:   jobID,
		service: svc,
		log:     log.Data(logger.Data{"job_id": jobID}),
		ctx:     ctx,
	}
}

// Info logs an info-level message.
func (l *JobLogger) Info(msg string, data logger.Data) {
	l.log.Info(msg, data)
	l.persist(models.JobLogLevelInfo, msg, data, nil)
}

// Warn logs a warning-level message.
func (l *JobLogger) Warn(msg string, data logger.Data) {
	l.log.Warn(msg, data)
	l.persist(models.JobLogLevelWarn, msg, data, nil)
}

// Error logs an error-level message with automatic stack trace.
func (l *JobLogger) Error(msg string, err error, data logger.Data) {
	l.log.Err(err).Error(msg, data)
	stack := string(debug.Stack())
	l.persist(models.JobLogLevelError, msg, data, &stack)
}

func (l *JobLogger) persist(level, msg string, data logger.Data, stackTrace *string) {
	var dataStr *string
	if len(data) > 0 {
		truncatedData := make(logger.Data)
		for k, v := range data {
			s, ok := v.(string)
			if ok && len(s) > maxDataValueLen {
				truncatedData[k] = truncateMiddle(s, maxDataValueLen)
			} else {
				truncatedData[k] = v
			}
		}
		jsonBytes, err := json.Marshal(truncatedData)
		if err == nil {
			s := string(jsonBytes)
			dataStr = &s
		}
	}

	jobLog := &models.JobLog{
		JobID:      l.jobID,
		Level:      level,
		Message:    msg,
		Data:       dataStr,
		StackTrace: stackTrace,
	}

	_ = l.service.CreateJobLog(l.ctx, jobLog)
}

func truncateMiddle(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	half := (maxLen - 5) / 2
	return s[:half] + " ... " + s[len(s)-half:]
}
