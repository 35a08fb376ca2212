package service

import (
	"flag"
	"os"
	"strings"

	"postboard/app/config"

	log "github.com/sirupsen/logrus"
)

var osExit = os.Exit

// newFlagSet returns a flag set for a subcommand carrying the shared
// --config flag.
func newFlagSet(name string) (*flag.FlagSet, *string) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stdout)
	path := fs.String("config", "", "path to a config file (default: config.yaml in . or ./configs)")
	return fs, path
}

// setupLogging applies the configured level and format to the standard
// logrus logger.
func setupLogging(cfg config.LogConfig) error {
	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		return err
	}
	log.SetLevel(level)

	switch strings.ToLower(cfg.Format) {
	case "json":
		log.SetFormatter(&log.JSONFormatter{})
	default:
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	return nil
}
