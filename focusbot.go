package main

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	cli "github.com/focusloop/focusbot/cmd/focusbot"
	"github.com/focusloop/focusbot/internal/config"
)

//go:embed etc/focusbot.yaml
var embeddedConfig []byte

func main() {
	// Load .env if present; secrets reach the config through ${VAR} expansion
	_ = godotenv.Load()

	c, err := config.LoadFromBytes(embeddedConfig)
	if err != nil {
		fmt.Printf("Failed to load embedded config: %v\n", err)
		os.Exit(1)
	}

	if path := os.Getenv("FOCUSBOT_CONFIG"); path != "" {
		c, err = config.Load(path)
		if err != nil {
			fmt.Printf("Failed to load config %s: %v\n", path, err)
			os.Exit(1)
		}
	}

	if err := cli.SetupRootCmd(&c).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
