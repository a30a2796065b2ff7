package logging

import (
	"time"

	gormlogger "gorm.io/gorm/logger"
)

// gormWriter 将 gorm 日志转发到 zerolog
// verbose 为 true 时 SQL 跟踪按 debug 输出，否则 gorm 只会报告慢查询与错误
type gormWriter struct {
	verbose bool
}

func (w gormWriter) Printf(format string, args ...interface{}) {
	if w.verbose {
		Debug().Msgf(format, args...)
		return
	}
	Warn().Msgf(format, args...)
}

// NewGormLogger 创建 gorm 日志器，慢查询阈值 200ms
func NewGormLogger(level string) gormlogger.Interface {
	logLevel := gormlogger.Warn
	if level == "debug" {
		logLevel = gormlogger.Info
	}
	return gormlogger.New(gormWriter{verbose: level == "debug"}, gormlogger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  logLevel,
		IgnoreRecordNotFoundError: true,
	})
}
