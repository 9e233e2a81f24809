package fiberlog

import "github.com/sirupsen/logrus"

// Config controls the request logging middleware.
type Config struct {
	// Logger is the logrus instance entries are written to.
	// When nil the standard logger is used.
	Logger *logrus.Logger
	// Tags selects which request fields end up in each entry.
	Tags []string
}

// ConfigDefault is used when New is called without a config.
var ConfigDefault = Config{
	Tags: []string{
		TagStatus,
		TagLatency,
		TagMethod,
		TagPath,
	},
}
