package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Log 是全局日志实例，未调用 Init 前输出到标准错误。
var Log = zerolog.New(os.Stderr).With().Timestamp().Logger()

// Init 按运行环境初始化全局日志：开发环境使用彩色控制台输出，其余使用 JSON。
func Init(development bool) {
	zerolog.TimeFieldFormat = time.RFC3339

	var out io.Writer = os.Stdout
	if development {
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "15:04:05"}
		Log = zerolog.New(out).With().Timestamp().Caller().Logger()
		return
	}
	Log = zerolog.New(out).With().Timestamp().Logger()
}

// SetOutput 替换日志输出，主要用于测试中静音或捕获日志。
func SetOutput(w io.Writer) {
	Log = Log.Output(w)
}

func Info() *zerolog.Event {
	return Log.Info()
}

func Error() *zerolog.Event {
	return Log.Error()
}

func Warn() *zerolog.Event {
	return Log.Warn()
}

func Debug() *zerolog.Event {
	return Log.Debug()
}

func Fatal() *zerolog.Event {
	return Log.Fatal()
}
