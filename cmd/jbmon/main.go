package main

import (
	"log"

	"github.com/MrSnakeDoc/jbmon/internal/app"
)

func main() {
	if err := app.New().Run(); err != nil {
		log.Fatalf("❌ jbmon failed: %v", err)
	}
}
