package main

import (
	"log"

	"github.com/m3rciful/ordersbot/core/cmd"
	"github.com/m3rciful/ordersbot/internal/bot"
)

func main() {
	err := cmd.Run(cmd.Options{
		ConfigEnvVar:      "CONFIG_PATH",
		DefaultConfigPath: "config.yaml",
		LoadConfig: func(path string) (cmd.ConfigCarrier, error) {
			return bot.LoadConfig(path)
		},
		Bootstrap: func(carrier cmd.ConfigCarrier) (cmd.TelegramApp, error) {
			cfg := carrier.(*bot.Config)
			return bot.NewApp(cfg)
		},
	})
	if err != nil {
		log.Fatalf("ordersbot: %v", err)
	}
}
