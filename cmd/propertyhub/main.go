// Command propertyhub serves the real-estate listing API.
package main

import (
	"context"
	"log"

	"github.com/dalemusser/propertyhub/internal/app/bootstrap"
	"github.com/dalemusser/waffle/app"
)

func main() {
	if err := app.Run(context.Background(), bootstrap.Hooks); err != nil {
		log.Fatal(err)
	}
}
