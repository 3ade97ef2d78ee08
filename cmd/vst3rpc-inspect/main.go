// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Command vst3rpc-inspect queries the inspect endpoints of a running bridge.
//
//	vst3rpc-inspect -dir /tmp/bridge stats
//	vst3rpc-inspect -dir /tmp/bridge instances
//	vst3rpc-inspect -dir /tmp/bridge health [service]
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/luxfi/vst3rpc/inspect"
)

var errNotServing = errors.New("not serving")

func main() {
	var (
		dir     = flag.String("dir", "", "directory holding the bridge endpoints")
		timeout = flag.Duration("timeout", 5*time.Second, "request timeout")
		verbose = flag.Bool("v", false, "log requests")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s -dir DIR stats|instances|health [service]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	level := zerolog.WarnLevel
	if *verbose {
		level = zerolog.DebugLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()

	if *dir == "" || flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	err := run(ctx, *dir, flag.Args(), log)
	cancel()
	switch {
	case errors.Is(err, errNotServing):
		os.Exit(3)
	case err != nil:
		log.Error().Err(err).Msg("inspect failed")
		os.Exit(1)
	}
}

func run(ctx context.Context, dir string, args []string, log zerolog.Logger) error {
	client := inspect.NewClient(dir)
	log.Debug().Str("dir", dir).Str("command", args[0]).Msg("querying bridge")

	switch args[0] {
	case "stats":
		stats, err := client.Stats(ctx)
		if err != nil {
			return err
		}
		return printJSON(stats)
	case "instances":
		ids, err := client.Instances(ctx)
		if err != nil {
			return err
		}
		return printJSON(ids)
	case "health":
		service := ""
		if len(args) > 1 {
			service = args[1]
		}
		status, err := inspect.CheckHealth(ctx, dir, service)
		if err != nil {
			return err
		}
		fmt.Println(status)
		if status != healthpb.HealthCheckResponse_SERVING {
			return errNotServing
		}
		return nil
	}
	return fmt.Errorf("unknown command %q", args[0])
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
