package main

import (
	"flag"
	"log"

	"glucolog/internal/di"
	"glucolog/internal/structures"
)

func main() {
	flags := &structures.CliFlags{}
	flag.StringVar(&flags.ConfigPath, "config", "config.yaml", "path to the configuration file")
	flag.BoolVar(&flags.DebugMode, "debug", false, "mirror logs to stderr")
	flag.Parse()

	if _, err := di.InitApp(flags); err != nil {
		log.Fatalf("glucolog: %s", err)
	}
}
