package main

import (
	"flag"
	"log"

	"kestrel-eoc/core/appbootstrap"
)

func main() {
	configPath := flag.String("config", "config.yml", "path to the configuration file")
	flag.Parse()

	if err := appbootstrap.Run(*configPath); err != nil {
		log.Fatalf("kestrel: %v", err)
	}
}
