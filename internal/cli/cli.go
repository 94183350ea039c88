package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"satchel/internal/config"
	"satchel/internal/state"
)

func Run(args []string) error {
	fs := flag.NewFlagSet("satchel", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	configPath, err := state.ConfigPath()
	if err != nil {
		return err
	}
	fs.StringVar(&configPath, "config", configPath, "path to config file")

	if err := fs.Parse(args); err != nil {
		return err
	}

	rest := fs.Args()
	if len(rest) == 0 {
		return usageError()
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx := context.Background()

	switch rest[0] {
	case "upload":
		opts, filePath, err := parseUploadArgs(rest[1:])
		if err != nil {
			return err
		}
		return uploadFile(ctx, cfg, opts, filePath)
	case "download":
		opts, key, err := parseDownloadArgs(rest[1:])
		if err != nil {
			return err
		}
		return downloadObject(ctx, cfg, opts, key)
	case "presign":
		opts, key, err := parsePresignArgs(rest[1:])
		if err != nil {
			return err
		}
		return presignObject(ctx, cfg, opts, key)
	case "ls":
		opts, err := parseLsArgs(rest[1:])
		if err != nil {
			return err
		}
		return listObjects(ctx, cfg, opts)
	case "rm":
		key, err := parseRmArgs(rest[1:])
		if err != nil {
			return err
		}
		return removeObject(ctx, cfg, key)
	case "status":
		opts, err := parseStatusArgs(rest[1:])
		if err != nil {
			return err
		}
		return daemonStatus(ctx, cfg, opts)
	default:
		return usageError()
	}
}

func usageError() error {
	return errors.New("usage: satchel [-config path] upload|download|presign|ls|rm|status ...")
}
