// Copyright (C) 2020 Finogeeks Co., Ltd
//
// This program is free software: you can redistribute it and/or  modify
// it under the terms of the GNU Affero General Public License, version 3,
// as published by the Free Software Foundation.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package log

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

type ZapLogger struct {
	logger *zap.SugaredLogger
}

func getLevel(level string) zapcore.Level {
	var l zapcore.Level
	if err := l.UnmarshalText([]byte(strings.ToLower(level))); err != nil {
		return zapcore.InfoLevel
	}
	return l
}

func getSeparator(separator string) string {
	switch separator {
	case "tab":
		return "\t"
	default:
		return " "
	}
}

func newZapLogger(cfg *LogConfig) Logger {
	syncers := make([]zapcore.WriteSyncer, 0, len(cfg.Files)+1)
	if cfg.WriteToStdout || len(cfg.Files) == 0 {
		syncers = append(syncers, zapcore.AddSync(os.Stdout))
	}

	for _, v := range cfg.Files {
		syncers = append(syncers, zapcore.AddSync(&lumberjack.Logger{
			Filename:   v,
			MaxSize:    cfg.ZapConfig.MaxSize,
			MaxBackups: cfg.ZapConfig.MaxBackups,
			MaxAge:     cfg.ZapConfig.MaxAge,
			LocalTime:  cfg.ZapConfig.LocalTime,
			Compress:   cfg.ZapConfig.Compress,
		}))
	}

	encCfg := zapcore.EncoderConfig{
		MessageKey:       "msg",
		LevelKey:         "level",
		TimeKey:          "time",
		CallerKey:        "caller",
		StacktraceKey:    "bt",
		EncodeLevel:      zapcore.CapitalLevelEncoder,
		EncodeTime:       zapcore.ISO8601TimeEncoder,
		EncodeCaller:     zapcore.ShortCallerEncoder,
		EncodeDuration:   zapcore.StringDurationEncoder,
		ConsoleSeparator: getSeparator(cfg.ZapConfig.FieldSeparator),
	}

	var encoder zapcore.Encoder
	if cfg.ZapConfig.JsonFormat {
		encoder = zapcore.NewJSONEncoder(encCfg)
	} else {
		encoder = zapcore.NewConsoleEncoder(encCfg)
	}
	logger := zap.New(zapcore.NewCore(
		encoder,
		zapcore.NewMultiWriteSyncer(syncers...),
		getLevel(cfg.Level),
	), zap.AddCaller(), zap.AddCallerSkip(2))

	if cfg.ZapConfig.BtEnabled {
		logger = logger.WithOptions(zap.AddStacktrace(getLevel(cfg.ZapConfig.BtLevel)))
	}
	return &ZapLogger{logger: logger.Sugar()}
}

// NewZapLogger wraps an existing zap logger, mostly useful in tests with zaptest/observer.
func NewZapLogger(l *zap.Logger) Logger {
	return &ZapLogger{logger: l.Sugar()}
}

func (l *ZapLogger) Debugf(template string, args ...interface{}) {
	l.logger.Debugf(template, args...)
}

func (l *ZapLogger) Debugw(msg string, kv KeysAndValues) {
	l.logger.Debugw(msg, kv...)
}

func (l *ZapLogger) Infof(template string, args ...interface{}) {
	l.logger.Infof(template, args...)
}

func (l *ZapLogger) Infow(msg string, kv KeysAndValues) {
	l.logger.Infow(msg, kv...)
}

func (l *ZapLogger) Warnf(template string, args ...interface{}) {
	l.logger.Warnf(template, args...)
}

func (l *ZapLogger) Warnw(msg string, kv KeysAndValues) {
	l.logger.Warnw(msg, kv...)
}

func (l *ZapLogger) Errorf(template string, args ...interface{}) {
	l.logger.Errorf(template, args...)
}

func (l *ZapLogger) Errorw(msg string, kv KeysAndValues) {
	l.logger.Errorw(msg, kv...)
}

func (l *ZapLogger) Fatalf(template string, args ...interface{}) {
	l.logger.Fatalf(template, args...)
}

func (l *ZapLogger) Sync() error {
	return l.logger.Sync()
}

func sprint(args ...interface{}) string {
	s := fmt.Sprintln(args...)
	return s[:len(s)-1]
}
