package logger

import (
	"log"
	"log/slog"
	"os"

	"codepool/internal/alert"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

// SetupLogger builds the process logger for the given environment. When a
// Telegram alerter is supplied, WARN and above are mirrored to the admin
// chat.
func SetupLogger(env, logPath string, tg *alert.Telegram) *slog.Logger {
	var handler slog.Handler
	var logFile *os.File
	var err error

	if env != envLocal {
		logFile, err = os.OpenFile(logPath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
		if err != nil {
			log.Fatal("error opening log file: ", err)
		}
		log.Printf("env: %s; log file: %s", env, logPath)
	}

	switch env {
	case envLocal:
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	case envDev:
		handler = slog.NewTextHandler(logFile, &slog.HandlerOptions{Level: slog.LevelDebug})
	case envProd:
		handler = slog.NewTextHandler(logFile, &slog.HandlerOptions{Level: slog.LevelInfo})
	default:
		log.Fatal("invalid environment: ", env)
	}

	if tg != nil {
		handler = NewTelegramHandler(handler, tg, slog.LevelWarn)
	}
	return slog.New(handler)
}
