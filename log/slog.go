package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/cockroachdb/errors"
	slogmulti "github.com/samber/slog-multi"
	"go.opentelemetry.io/contrib/bridges/otelslog"
)

const name = "github.com/hyperledger-labs/yui-remote-signer"

type SignerLogger struct {
	*slog.Logger
}

var signerLogger *SignerLogger

func InitLogger(logLevel, format, output string, enableOtelLogger bool) error {
	var writer io.Writer
	switch output {
	case "stdout":
		writer = os.Stdout
	case "stderr":
		writer = os.Stderr
	default:
		return errors.New("invalid log output")
	}
	return InitLoggerWithWriter(logLevel, format, writer, enableOtelLogger)
}

func InitLoggerWithWriter(logLevel, format string, writer io.Writer, enableOtelLogger bool) error {
	// level
	var slogLevel slog.Level
	if err := slogLevel.UnmarshalText([]byte(logLevel)); err != nil {
		return errors.Wrap(err, "invalid log level")
	}
	handlerOpts := &slog.HandlerOptions{
		Level:     slogLevel,
		AddSource: true,
	}

	var handler slog.Handler
	// format
	switch format {
	case "text":
		handler = slog.NewTextHandler(writer, handlerOpts)
	case "json":
		handler = slog.NewJSONHandler(writer, handlerOpts)
	default:
		return errors.New("invalid log format")
	}

	if enableOtelLogger {
		handler = slogmulti.Fanout(
			handler,
			otelslog.NewHandler(name),
		)
	}

	// set global logger
	signerLogger = &SignerLogger{
		slog.New(handler),
	}
	return nil
}

func GetLogger() *SignerLogger {
	return signerLogger
}

// log emits a record whose source location points to the caller
// `callDepthOffset` frames above the direct caller of this method.
func (sl *SignerLogger) log(level slog.Level, callDepthOffset int, msg string, args ...any) {
	sl.logContext(context.Background(), level, callDepthOffset+1, msg, args...)
}

func (sl *SignerLogger) logContext(ctx context.Context, level slog.Level, callDepthOffset int, msg string, args ...any) {
	if !sl.Enabled(ctx, level) {
		return
	}
	var pcs [1]uintptr
	// skip [runtime.Callers, this method] and the requested offset
	runtime.Callers(2+callDepthOffset, pcs[:])
	r := slog.NewRecord(time.Now(), level, msg, pcs[0])
	r.Add(args...)
	_ = sl.Handler().Handle(ctx, r)
}

func (sl *SignerLogger) Error(msg string, err error, otherArgs ...any) {
	cErr := errors.NewWithDepth(1, err.Error())
	args := append([]any{"error", cErr, "stack", fmt.Sprintf("%+v", cErr)}, otherArgs...)
	sl.log(slog.LevelError, 1, msg, args...)
}

func (sl *SignerLogger) ErrorContext(ctx context.Context, msg string, err error, otherArgs ...any) {
	cErr := errors.NewWithDepth(1, err.Error())
	args := append([]any{"error", cErr, "stack", fmt.Sprintf("%+v", cErr)}, otherArgs...)
	sl.logContext(ctx, slog.LevelError, 1, msg, args...)
}

func (sl *SignerLogger) Fatal(msg string, err error, otherArgs ...any) {
	sl.Error(msg, err, otherArgs...)
	os.Exit(1)
}

func (sl *SignerLogger) TimeTrack(start time.Time, name string, otherArgs ...any) {
	elapsed := time.Since(start)
	args := append([]any{"name", name, "elapsed", elapsed}, otherArgs...)
	sl.log(slog.LevelInfo, 1, "time track", args...)
}

func (sl *SignerLogger) TimeTrackContext(ctx context.Context, start time.Time, name string, otherArgs ...any) {
	elapsed := time.Since(start)
	args := append([]any{"name", name, "elapsed", elapsed}, otherArgs...)
	sl.logContext(ctx, slog.LevelInfo, 1, "time track", args...)
}

func (sl *SignerLogger) WithSigner(
	backend string,
	keyName string,
) *SignerLogger {
	return &SignerLogger{
		sl.With(
			"signer backend", backend,
			"key name", keyName,
		),
	}
}

func (sl *SignerLogger) WithModule(
	moduleName string,
) *SignerLogger {
	return &SignerLogger{
		sl.With(
			"module", moduleName,
		),
	}
}
