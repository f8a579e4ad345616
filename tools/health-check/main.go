package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/padel-games/padelbot/internal/logging"
	"github.com/padel-games/padelbot/internal/shutdown"
)

type Config struct {
	Url string `envconfig:"PADEL_HP_URL" default:"http://127.0.0.1:1234/health"`
}

func main() {
	flag.Parse()
	ctx, cancel := shutdown.New()
	logger := logging.FromContext(ctx)
	defer cancel()
	config := Config{}
	if err := envconfig.Process("", &config); err != nil {
		logger.Fatalf("processing the config: %v", err)
	}

	client := &http.Client{Timeout: 10 * time.Second}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, config.Url, nil)
	if err != nil {
		logger.Fatalf("build request: %v", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		logger.Fatalf("client get: %v", err)
	}
	defer resp.Body.Close()

	_, _ = fmt.Fprintf(os.Stdout, "%d\n", resp.StatusCode)
	if resp.StatusCode != http.StatusOK {
		os.Exit(1)
	}
}
