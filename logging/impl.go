package logging

import (
	"go.uber.org/zap"
)

// Logger is the logging interface shared by every package in this module.
type Logger interface {
	Debug(args ...interface{})
	Debugf(template string, args ...interface{})
	Debugw(msg string, keysAndValues ...interface{})
	Info(args ...interface{})
	Infof(template string, args ...interface{})
	Infow(msg string, keysAndValues ...interface{})
	Warn(args ...interface{})
	Warnf(template string, args ...interface{})
	Warnw(msg string, keysAndValues ...interface{})
	Error(args ...interface{})
	Errorf(template string, args ...interface{})
	Errorw(msg string, keysAndValues ...interface{})

	Sublogger(subname string) Logger
	SetLevel(level Level)
	GetLevel() Level
	Sync() error
	AsZap() *zap.SugaredLogger
}

type impl struct {
	*zap.SugaredLogger
	level zap.AtomicLevel
}

// Sublogger returns a child logger whose name is the parent's name with subname appended. The
// sublogger shares its parent's level.
func (imp *impl) Sublogger(subname string) Logger {
	return &impl{SugaredLogger: imp.SugaredLogger.Named(subname), level: imp.level}
}

func (imp *impl) SetLevel(level Level) {
	imp.level.SetLevel(level.AsZap())
}

func (imp *impl) GetLevel() Level {
	return LevelFromZap(imp.level.Level())
}

func (imp *impl) AsZap() *zap.SugaredLogger {
	return imp.SugaredLogger
}
