package main

import (
	"log"

	"github.com/carematch360/portal/internal/devidentity/app"
)

func main() {
	cfg := app.LoadConfig()

	application, err := app.New(cfg)
	if err != nil {
		log.Fatalf("failed to initialize dev identity: %v", err)
	}

	if err := application.Run(); err != nil {
		log.Fatalf("dev identity error: %v", err)
	}
}
