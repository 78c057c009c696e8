// Command server starts the marketplace HTTP server without the CLI.
package main

import (
	"log"

	"github.com/shashiranjanraj/bazaar/internal/server"
)

func main() {
	if err := server.Start(); err != nil {
		log.Fatal(err)
	}
}
