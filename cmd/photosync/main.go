package main

import (
	"github.com/bstardust/photosync/internal/logger"
	"github.com/bstardust/photosync/pkg/cli"
)

func main() {
	// Initialize logger
	logger.Init()

	// Execute CLI
	cli.Execute()
}
