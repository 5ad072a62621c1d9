// The server command runs the blog backend: it loads configuration, applies
// schema migrations and serves the HTTP API until interrupted.
package main

import (
	"context"
	"log"

	"github.com/mkuzmin/blogd/internal/server"
	"github.com/mkuzmin/blogd/internal/server/config"
)

func main() {
	cfg := config.LoadConfig()

	app, err := server.NewApp(cfg)
	if err != nil {
		log.Fatalf("startup failed: %v", err)
	}

	app.Run(context.Background())
}
