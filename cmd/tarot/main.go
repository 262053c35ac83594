// Command tarot runs the tarot Telegram Mini App backend and its
// maintenance tasks.
//
// @title                       Tarot Mini App API
// @version                     1.0
// @description                 Backend of the tarot Telegram Mini App: readings, predictions, subscriptions and codes.
// @BasePath                    /api/v1
// @securityDefinitions.apikey  TelegramInitData
// @in                          header
// @name                        X-Telegram-Init-Data
// @securityDefinitions.apikey  AdminKey
// @in                          header
// @name                        X-Admin-Key
package main

import (
	"os"

	"github.com/rs/zerolog/log"
)

// version is stamped at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal().Err(err).Msg("tarot")
	}
}
