package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/filepicker/internal/client/cli"
	"github.com/dmitrijs2005/filepicker/internal/client/config"
	"github.com/dmitrijs2005/filepicker/internal/flagx"
)

func main() {

	cfg := config.LoadConfig()
	app, err := cli.NewApp(cfg)

	if err != nil {
		log.Fatalf("%v", err)
		return
	}

	paths := flagx.Positional(os.Args[1:], config.ValueFlags, config.BoolFlags)
	os.Exit(app.Run(context.Background(), paths))

}
