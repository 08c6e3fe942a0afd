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

// Package log is the process wide logging facade. Until Setup is called
// every call falls through to the standard library logger.
package log

import (
	deflog "log"
	"sync"
)

type KeysAndValues []interface{}

type LogConfig struct {
	Level         string   `yaml:"level"`
	Files         []string `yaml:"files"`
	Underlying    string   `yaml:"underlying"`
	WriteToStdout bool     `yaml:"write_to_stdout"`
	ZapConfig     struct {
		MaxSize        int    `yaml:"max_size"`
		MaxBackups     int    `yaml:"max_backups"`
		MaxAge         int    `yaml:"max_age"`
		LocalTime      bool   `yaml:"localtime"`
		Compress       bool   `yaml:"compress"`
		JsonFormat     bool   `yaml:"json_format"`
		BtEnabled      bool   `yaml:"bt_enabled"`
		BtLevel        string `yaml:"bt_level"`
		FieldSeparator string `yaml:"field_separator"`
	} `yaml:"zap_config"`
}

type Logger interface {
	Debugf(template string, args ...interface{})
	Debugw(msg string, kv KeysAndValues)
	Infof(template string, args ...interface{})
	Infow(msg string, kv KeysAndValues)
	Warnf(template string, args ...interface{})
	Warnw(msg string, kv KeysAndValues)
	Errorf(template string, args ...interface{})
	Errorw(msg string, kv KeysAndValues)
	Fatalf(template string, args ...interface{})
	Sync() error
}

var (
	mu     sync.RWMutex
	logger Logger
)

func Setup(cfg *LogConfig) {
	var l Logger
	switch cfg.Underlying {
	case "zap":
		l = newZapLogger(cfg)
	default:
		l = newZapLogger(cfg)
	}
	SetLogger(l)
}

// SetLogger replaces the active logger. Passing nil restores the fallback.
func SetLogger(l Logger) {
	mu.Lock()
	logger = l
	mu.Unlock()
}

func current() Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// Sync flushes buffered entries.
func Sync() error {
	if l := current(); l != nil {
		return l.Sync()
	}
	return nil
}

func Debugf(template string, args ...interface{}) {
	if l := current(); l != nil {
		l.Debugf(template, args...)
	} else {
		deflog.Printf(template, args...)
	}
}

func Debugw(msg string, kv KeysAndValues) {
	if l := current(); l != nil {
		l.Debugw(msg, kv)
	} else {
		deflog.Print(msg, kv)
	}
}

func Info(args ...interface{}) {
	Infof("%s", sprint(args...))
}

func Infof(template string, args ...interface{}) {
	if l := current(); l != nil {
		l.Infof(template, args...)
	} else {
		deflog.Printf(template, args...)
	}
}

func Infow(msg string, kv KeysAndValues) {
	if l := current(); l != nil {
		l.Infow(msg, kv)
	} else {
		deflog.Print(msg, kv)
	}
}

func Warnf(template string, args ...interface{}) {
	if l := current(); l != nil {
		l.Warnf(template, args...)
	} else {
		deflog.Printf(template, args...)
	}
}

func Warnw(msg string, kv KeysAndValues) {
	if l := current(); l != nil {
		l.Warnw(msg, kv)
	} else {
		deflog.Print(msg, kv)
	}
}

func Error(args ...interface{}) {
	Errorf("%s", sprint(args...))
}

func Errorf(template string, args ...interface{}) {
	if l := current(); l != nil {
		l.Errorf(template, args...)
	} else {
		deflog.Printf(template, args...)
	}
}

func Errorw(msg string, kv KeysAndValues) {
	if l := current(); l != nil {
		l.Errorw(msg, kv)
	} else {
		deflog.Print(msg, kv)
	}
}

func Fatalf(template string, args ...interface{}) {
	if l := current(); l != nil {
		l.Fatalf(template, args...)
	} else {
		deflog.Fatalf(template, args...)
	}
}
