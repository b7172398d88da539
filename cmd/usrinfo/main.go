package main

import (
	"log"

	"github.com/patric-chuzhbe/usrinfo/internal/app"
	"github.com/patric-chuzhbe/usrinfo/internal/logger"
)

func main() {
	theApp, err := app.New()
	if err != nil {
		log.Fatalf("cannot start the service: %v", err)
	}
	defer theApp.Close()

	if err := theApp.Run(); err != nil {
		logger.Log.Errorw("the service stopped with an error", "error", err)
	}
}
