package main

import (
	"log"

	"github.com/joho/godotenv"
)

func main() {
	// .env is optional for offline runs
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		log.Fatal(err)
	}
}
