package main

import (
	"os"

	"github.com/vovakirdan/bookstore-server/internal/log"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.New("error", false).Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}
