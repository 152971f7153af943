package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"

	"github.com/dmitrijs2005/audioapi/internal/server"
	"github.com/dmitrijs2005/audioapi/internal/server/config"
)

func main() {

	// A missing .env file is fine; the environment and flags still apply.
	_ = godotenv.Load()

	ctx := context.Background()
	cfg := config.LoadConfig()
	app, err := server.NewApp(ctx, cfg)

	if err != nil {
		log.Printf("%v", err)
		return
	}

	app.Run(ctx)

}
