package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/samvad-hq/taxjar-adapter/internal/app"
	"github.com/samvad-hq/taxjar-adapter/internal/config"
	"github.com/samvad-hq/taxjar-adapter/internal/logger"
	"github.com/samvad-hq/taxjar-adapter/pkg/api"
	"github.com/spf13/pflag"
)

// errCallFailed marks a typed API failure that has already been reported.
var errCallFailed = errors.New("call failed")

type flags struct {
	method  string
	path    string
	key     string
	data    string
	timeout int
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		if !errors.Is(err, errCallFailed) {
			fmt.Fprintf(os.Stderr, "taxcall failed: %v\n", err)
		}
		os.Exit(1)
	}
}

func parseFlags(args []string) (flags, error) {
	var f flags
	fs := pflag.NewFlagSet("taxcall", pflag.ContinueOnError)
	fs.StringVarP(&f.method, "method", "X", "GET", "HTTP verb (GET, POST, PUT, PATCH, DELETE)")
	fs.StringVarP(&f.path, "path", "p", "", "API path, e.g. /v2/taxes")
	fs.StringVarP(&f.key, "key", "k", "", "top-level response key to extract")
	fs.StringVarP(&f.data, "data", "d", "", "JSON object of request parameters")
	fs.IntVar(&f.timeout, "timeout", 0, "per-call timeout in seconds (0 uses timeout_seconds)")
	if err := fs.Parse(args); err != nil {
		return flags{}, err
	}
	if f.path == "" {
		return flags{}, errors.New("--path is required")
	}
	return f, nil
}

func descriptorFor(f flags) (api.CallDescriptor, error) {
	verb, err := api.ParseVerb(f.method)
	if err != nil {
		return api.CallDescriptor{}, err
	}
	params, err := api.ParseParams([]byte(f.data))
	if err != nil {
		return api.CallDescriptor{}, fmt.Errorf("parse --data: %w", err)
	}
	return api.CallDescriptor{
		Verb:           verb,
		Path:           f.path,
		ResultKey:      f.key,
		Params:         params,
		TimeoutSeconds: f.timeout,
	}, nil
}

func run(args []string) error {
	f, err := parseFlags(args)
	if err != nil {
		return err
	}
	d, err := descriptorFor(f)
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.Init(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	caller, err := app.NewCaller(ctx, cfg, log)
	if err != nil {
		logger.ErrorObj("failed to initialize caller", "error", err)
		return err
	}
	defer caller.Close()

	result, err := caller.Call(ctx, d)
	if err != nil {
		var apiErr *api.Error
		if errors.As(err, &apiErr) {
			writeJSON(os.Stderr, map[string]any{
				"kind":    apiErr.Kind.String(),
				"status":  apiErr.StatusCode,
				"message": apiErr.Message,
				"body":    apiErr.Body,
			})
			return errCallFailed
		}
		return err
	}
	return writeJSON(os.Stdout, result)
}

func writeJSON(out *os.File, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
