package clog

import (
	"log/slog"

	"github.com/kazz187/lendguild/pkg/cerr"
)

type Level int

const (
	LevelDebug Level = iota + 1
	LevelInfo
	LevelWarn
	LevelError
)

// CodeToLevel maps protocol error codes to log levels. Rejected requests
// (authorization, policy, state preconditions) are routine and log at Info;
// only system faults log at Error.
func CodeToLevel(code cerr.Code) Level {
	switch code {
	case cerr.OK:
		return LevelInfo
	case cerr.Canceled:
		return LevelInfo
	case cerr.InvalidArgument:
		return LevelInfo
	case cerr.Unauthorized:
		return LevelInfo
	case cerr.NotFound:
		return LevelInfo
	case cerr.AlreadyDone:
		return LevelInfo
	case cerr.InvalidState:
		return LevelInfo
	case cerr.LimitExceeded:
		return LevelInfo
	case cerr.NotInitialized:
		return LevelWarn
	case cerr.Unknown:
		return LevelError
	case cerr.Internal:
		return LevelError
	case cerr.Unavailable:
		return LevelError
	}
	return LevelError
}

func (l Level) SlogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelInfo:
		return slog.LevelInfo
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	}
	return slog.LevelError
}
