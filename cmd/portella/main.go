package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/hitoshi/portella/internal/app"
)

func main() {
	// .envが存在すれば読み込む（本番環境では存在しないため無視する）
	_ = godotenv.Load()

	if err := app.Run(os.Stderr, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "portella: %v\n", err)
		os.Exit(1)
	}
}
