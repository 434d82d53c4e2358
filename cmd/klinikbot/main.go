package main

import (
	"log"

	corecmd "klinikbot/core/cmd"
)

func main() {
	err := corecmd.Run(corecmd.Options{
		DefaultConfigPath: "config.yaml",
	})
	if err != nil {
		log.Fatalf("klinikbot: %v", err)
	}
}
