package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/vkngwrapper/static-triangle/internal/app"
	"github.com/vkngwrapper/static-triangle/internal/config"
	"github.com/vkngwrapper/static-triangle/internal/logging"
)

func init() {
	// SDL window and event calls must stay on the main thread
	runtime.LockOSThread()
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := app.New(config.Default(), logging.Logger()).Run(ctx)
	if err != nil {
		log.Fatalf("%+v\n", err)
	}
}
