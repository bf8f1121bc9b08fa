package main

import (
	"log"

	"github.com/m3rciful/shopbot/core/cmd"
	"github.com/m3rciful/shopbot/internal/app"
)

func main() {
	opts := cmd.Options{
		DefaultConfigPath: "config.yaml",
		LoadConfig: func(path string) (cmd.ConfigCarrier, error) {
			return app.Load(path)
		},
		Bootstrap: app.Bootstrap,
	}
	if err := cmd.RunSupervised(opts, cmd.SupervisorOptions{}); err != nil {
		log.Fatalf("shopbot: %v", err)
	}
}
