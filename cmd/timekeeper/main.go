package main

import (
	"flag"
	"log"
	"timekeeper/internal/di"
	"timekeeper/internal/structures"
)

func main() {
	flags := &structures.CliFlags{}
	flag.StringVar(&flags.ConfigPath, "config", "config/config.yaml", "path to the YAML config file")
	flag.BoolVar(&flags.DebugMode, "debug", false, "enable debug logging")
	flag.Parse()

	app, cleanup, err := di.InitApp(flags)
	if err != nil {
		log.Fatalf("init: %s", err)
	}
	defer cleanup()

	if err := app.Run(); err != nil {
		log.Printf("run: %s", err)
	}
}
