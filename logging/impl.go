package logging

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type (
	impl struct {
		name  string
		level AtomicLevel
		inUTC bool

		appenders []Appender
	}

	// LogEntry embeds a zapcore Entry and slice of Fields.
	LogEntry struct {
		zapcore.Entry
		fields []zapcore.Field
	}
)

// Frames between getCaller and the user code:
// getCaller <- newEntry <- format* <- emit* <- public method <- caller.
const skipToLogCaller = 5

func (imp *impl) newEntry(logLevel Level, msg string) *LogEntry {
	ret := &LogEntry{}
	ret.Time = time.Now()
	if imp.inUTC {
		ret.Time = ret.Time.UTC()
	}
	ret.LoggerName = imp.name
	ret.Level = logLevel.AsZap()
	ret.Message = msg
	ret.Caller = getCaller()
	return ret
}

func (imp *impl) AddAppender(appender Appender) {
	imp.appenders = append(imp.appenders, appender)
}

func (imp *impl) SetLevel(level Level) {
	imp.level.Set(level)
}

func (imp *impl) GetLevel() Level {
	return imp.level.Get()
}

func (imp *impl) Level() zapcore.Level {
	return imp.GetLevel().AsZap()
}

// Sublogger shares appenders with its parent. The level is copied, so later changes to either
// logger do not propagate.
func (imp *impl) Sublogger(subname string) Logger {
	newName := subname
	if imp.name != "" {
		newName = fmt.Sprintf("%s.%s", imp.name, subname)
	}

	return &impl{
		name:      newName,
		level:     NewAtomicLevelAt(imp.level.Get()),
		inUTC:     imp.inUTC,
		appenders: imp.appenders,
	}
}

func (imp *impl) Sync() error {
	var errs []error
	for _, appender := range imp.appenders {
		if err := appender.Sync(); err != nil {
			errs = append(errs, err)
		}
	}

	return multierr.Combine(errs...)
}

func (imp *impl) AsZap() *zap.SugaredLogger {
	// Appenders that are full zap cores (the test observer) are teed into the zap logger so that
	// logs written by libraries through AsZap are still observable.
	var copiedCores []zapcore.Core
	for _, appender := range imp.appenders {
		if core, ok := appender.(zapcore.Core); ok {
			copiedCores = append(copiedCores, core)
		}
	}

	config := NewZapLoggerConfig()
	config.Level = zap.NewAtomicLevelAt(imp.level.Get().AsZap())
	ret := zap.Must(config.Build()).Sugar().Named(imp.name)
	for _, core := range copiedCores {
		ret = ret.WithOptions(zap.WrapCore(func(c zapcore.Core) zapcore.Core {
			return zapcore.NewTee(c, core)
		}))
	}

	return ret
}

func (imp *impl) Desugar() *zap.Logger {
	return imp.AsZap().Desugar()
}

func (imp *impl) Named(name string) *zap.SugaredLogger {
	return imp.AsZap().Named(name)
}

func (imp *impl) With(args ...interface{}) *zap.SugaredLogger {
	return imp.AsZap().With(args...)
}

func (imp *impl) WithOptions(opts ...zap.Option) *zap.SugaredLogger {
	return imp.AsZap().WithOptions(opts...)
}

func (imp *impl) enabled(ctx context.Context, logLevel Level) bool {
	if logLevel >= imp.level.Get() {
		return true
	}
	return logLevel == DEBUG && IsDebugMode(ctx)
}

func (imp *impl) write(entry *LogEntry) {
	for _, appender := range imp.appenders {
		if err := appender.Write(entry.Entry, entry.fields); err != nil {
			fmt.Fprint(os.Stderr, err)
		}
	}
}

func (imp *impl) format(logLevel Level, args ...interface{}) *LogEntry {
	return imp.newEntry(logLevel, fmt.Sprint(args...))
}

func (imp *impl) formatf(logLevel Level, template string, args ...interface{}) *LogEntry {
	return imp.newEntry(logLevel, fmt.Sprintf(template, args...))
}

// formatw turns `keysAndValues` into fields where the odd elements are the keys and their
// following even counterpart is the value. Values are json serialized, so only public struct
// fields show up in the output.
func (imp *impl) formatw(logLevel Level, msg string, keysAndValues ...interface{}) *LogEntry {
	logEntry := imp.newEntry(logLevel, msg)
	logEntry.fields = make([]zapcore.Field, 0, len(keysAndValues)/2)
	for keyIdx := 0; keyIdx < len(keysAndValues); keyIdx += 2 {
		var keyStr string
		if stringer, ok := keysAndValues[keyIdx].(fmt.Stringer); ok {
			keyStr = stringer.String()
		} else {
			keyStr = fmt.Sprintf("%v", keysAndValues[keyIdx])
		}

		if keyIdx+1 < len(keysAndValues) {
			logEntry.fields = append(logEntry.fields, zap.Any(keyStr, keysAndValues[keyIdx+1]))
		} else {
			// Keep the dangling key visible instead of dropping it.
			logEntry.fields = append(logEntry.fields, zap.Any(keyStr, errors.New("unpaired log key")))
		}
	}
	return logEntry
}

func (imp *impl) emit(ctx context.Context, logLevel Level, args []interface{}) {
	if imp.enabled(ctx, logLevel) {
		imp.write(imp.format(logLevel, args...))
	}
}

func (imp *impl) emitf(ctx context.Context, logLevel Level, template string, args []interface{}) {
	if imp.enabled(ctx, logLevel) {
		imp.write(imp.formatf(logLevel, template, args...))
	}
}

func (imp *impl) emitw(ctx context.Context, logLevel Level, msg string, keysAndValues []interface{}) {
	if imp.enabled(ctx, logLevel) {
		imp.write(imp.formatw(logLevel, msg, keysAndValues...))
	}
}

func (imp *impl) fatal(entry func() *LogEntry) {
	imp.write(entry())
	os.Exit(1)
}

func (imp *impl) Debug(args ...interface{}) {
	imp.emit(context.Background(), DEBUG, args)
}

func (imp *impl) Debugf(template string, args ...interface{}) {
	imp.emitf(context.Background(), DEBUG, template, args)
}

func (imp *impl) Debugw(msg string, keysAndValues ...interface{}) {
	imp.emitw(context.Background(), DEBUG, msg, keysAndValues)
}

func (imp *impl) CDebugf(ctx context.Context, template string, args ...interface{}) {
	imp.emitf(ctx, DEBUG, template, args)
}

func (imp *impl) CDebugw(ctx context.Context, msg string, keysAndValues ...interface{}) {
	imp.emitw(ctx, DEBUG, msg, keysAndValues)
}

func (imp *impl) Info(args ...interface{}) {
	imp.emit(context.Background(), INFO, args)
}

func (imp *impl) Infof(template string, args ...interface{}) {
	imp.emitf(context.Background(), INFO, template, args)
}

func (imp *impl) Infow(msg string, keysAndValues ...interface{}) {
	imp.emitw(context.Background(), INFO, msg, keysAndValues)
}

func (imp *impl) Warn(args ...interface{}) {
	imp.emit(context.Background(), WARN, args)
}

func (imp *impl) Warnf(template string, args ...interface{}) {
	imp.emitf(context.Background(), WARN, template, args)
}

func (imp *impl) Warnw(msg string, keysAndValues ...interface{}) {
	imp.emitw(context.Background(), WARN, msg, keysAndValues)
}

func (imp *impl) Error(args ...interface{}) {
	imp.emit(context.Background(), ERROR, args)
}

func (imp *impl) Errorf(template string, args ...interface{}) {
	imp.emitf(context.Background(), ERROR, template, args)
}

func (imp *impl) Errorw(msg string, keysAndValues ...interface{}) {
	imp.emitw(context.Background(), ERROR, msg, keysAndValues)
}

// These Fatal* methods log as errors then exit the process. The caller frame is off by one
// compared to the other levels.
func (imp *impl) Fatal(args ...interface{}) {
	imp.fatal(func() *LogEntry { return imp.format(ERROR, args...) })
}

func (imp *impl) Fatalf(template string, args ...interface{}) {
	imp.fatal(func() *LogEntry { return imp.formatf(ERROR, template, args...) })
}

func (imp *impl) Fatalw(msg string, keysAndValues ...interface{}) {
	imp.fatal(func() *LogEntry { return imp.formatw(ERROR, msg, keysAndValues...) })
}

// Return example: "logging/impl_test.go:36".
func getCaller() zapcore.EntryCaller {
	var ok bool
	var entryCaller zapcore.EntryCaller
	entryCaller.PC, entryCaller.File, entryCaller.Line, ok = runtime.Caller(skipToLogCaller)
	if !ok {
		return entryCaller
	}
	entryCaller.Defined = true

	if runtimeFunc := runtime.FuncForPC(entryCaller.PC); runtimeFunc != nil {
		entryCaller.Function = runtimeFunc.Name()
	}

	return entryCaller
}
