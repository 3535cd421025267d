package main

import (
	"flag"
	"time"
)

// options holds the parsed command line.
type options struct {
	configDir    string
	scenarioPath string
	settle       time.Duration
}

func parseFlags() options {
	var opts options
	flag.StringVar(&opts.configDir, "config", ".", "directory containing usermarks.cfg.json")
	flag.StringVar(&opts.scenarioPath, "scenario", "", "path to a scenario JSON file to replay")
	flag.DurationVar(&opts.settle, "settle", 2*time.Second, "how long to wait for queued commands before shutdown")
	flag.Parse()
	return opts
}
