package main

import (
	"flag"
	"log"

	"github.com/danmuck/prt7/internal/config"
)

func main() {
	output := flag.String("output", "prt7.toml", "output path for config template")
	validate := flag.Bool("validate", false, "validate an existing config file")
	input := flag.String("input", "prt7.toml", "config path for validation")
	force := flag.Bool("force", false, "overwrite existing config file")
	flag.Parse()

	if *validate {
		cfg, err := config.Load(*input)
		if err != nil {
			log.Fatal(err)
		}
		log.Printf("Validated config at %s (device=%s baud=%d eof=%s)", *input, cfg.Device, cfg.Baud, cfg.EOFPolicy)
		return
	}

	if err := config.WriteTemplate(*output, *force); err != nil {
		log.Fatal(err)
	}
	log.Printf("Wrote config template to %s", *output)
}
