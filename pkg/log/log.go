// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package log

import (
	"fmt"
	"io"
	"log"
	"os"
)

// Leveled logging to stderr. Time/date is omitted by default because
// systemd adds it for us; set log_date in the config (or KVSTORED_LOG_DATE)
// to turn it back on.
//
// Uses these prefixes: https://www.freedesktop.org/software/systemd/man/sd-daemon.html
//
// kvstored only ever logs at info/warn/error, so unlike the logger this
// was grounded on, there is no debug/notice/crit tier to gate.

var logDateTime bool

var (
	InfoWriter io.Writer = os.Stderr
	WarnWriter io.Writer = os.Stderr
	ErrWriter  io.Writer = os.Stderr
)

var (
	InfoPrefix string = "<6>[INFO]    "
	WarnPrefix string = "<4>[WARNING] "
	ErrPrefix  string = "<3>[ERROR]   "
)

var (
	InfoLog *log.Logger = log.New(InfoWriter, InfoPrefix, 0)
	WarnLog *log.Logger = log.New(WarnWriter, WarnPrefix, log.Lshortfile)
	ErrLog  *log.Logger = log.New(ErrWriter, ErrPrefix, log.Llongfile)

	InfoTimeLog *log.Logger = log.New(InfoWriter, InfoPrefix, log.LstdFlags)
	WarnTimeLog *log.Logger = log.New(WarnWriter, WarnPrefix, log.LstdFlags|log.Lshortfile)
	ErrTimeLog  *log.Logger = log.New(ErrWriter, ErrPrefix, log.LstdFlags|log.Llongfile)
)

// SetLogLevel silences every writer below lvl ("info", "warn", or "error").
// Unrecognized values fall back to "info".
func SetLogLevel(lvl string) {
	switch lvl {
	case "error":
		WarnWriter = io.Discard
		fallthrough
	case "warn":
		InfoWriter = io.Discard
	case "info":
		// nothing discarded
	default:
		fmt.Printf("pkg/log: invalid loglevel %#v, defaulting to \"info\"\n", lvl)
		SetLogLevel("info")
	}
}

// SetLogDateTime toggles a date/time prefix on every subsequent log line.
func SetLogDateTime(logdate bool) {
	logDateTime = logdate
}

func printfStr(format string, v ...interface{}) string {
	return fmt.Sprintf(format, v...)
}

func Infof(format string, v ...interface{}) {
	if InfoWriter != io.Discard {
		out := printfStr(format, v...)
		if logDateTime {
			InfoTimeLog.Output(2, out)
		} else {
			InfoLog.Output(2, out)
		}
	}
}

func Warnf(format string, v ...interface{}) {
	if WarnWriter != io.Discard {
		out := printfStr(format, v...)
		if logDateTime {
			WarnTimeLog.Output(2, out)
		} else {
			WarnLog.Output(2, out)
		}
	}
}

func Errorf(format string, v ...interface{}) {
	if ErrWriter != io.Discard {
		out := printfStr(format, v...)
		if logDateTime {
			ErrTimeLog.Output(2, out)
		} else {
			ErrLog.Output(2, out)
		}
	}
}
