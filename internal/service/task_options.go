package service

import (
	"time"
)

type RepoType string

const DBType RepoType = "postgres"
const InMemoryType RepoType = "inmemory"

const (
	defaultPage  = 1
	defaultLimit = 50
	maxLimit     = 200
)

// Option настраивает сервисы; по умолчанию часы - time.Now в UTC
type Option func(*options)

type options struct {
	now func() time.Time
}

func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{now: func() time.Time { return time.Now().UTC() }}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
