package main

import (
	"github.com/suthee/kinarai/core/internal/app"
	"github.com/suthee/kinarai/core/internal/config"
)

func main() {
	app.Go(config.Load())
}
