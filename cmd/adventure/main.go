// Adventure plays text adventures defined by Lua definition documents and
// YAML adventure instances.
// Usage: adventure [-plain] [-script <file>] [-trace] [-check] [-instance <file>] <game_directory>
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/clp-research/clembench-sub000/config"
)

// Set via -ldflags at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	cfg, err := config.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("parse flags: %v", err)
	}
	if cfg.Version {
		fmt.Printf("adventure %s (commit %s, built %s)\n", version, commit, date)
		return
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Usage: adventure [-plain] [-script <file>] [-trace] [-check] [-instance <file>] <game_directory>\n")
		log.Fatalf("%v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := Run(ctx, cfg, os.Stdin, os.Stdout); err != nil {
		stop()
		log.Fatalf("%v", err)
	}
}
