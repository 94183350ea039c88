package cli

import (
	"errors"
	"flag"
	"os"
)

func parseUploadArgs(args []string) (uploadOptions, string, error) {
	uploadFS := flag.NewFlagSet("upload", flag.ContinueOnError)
	uploadFS.SetOutput(os.Stderr)

	var opts uploadOptions
	uploadFS.StringVar(&opts.Name, "name", "", "object name to store under (defaults to the file's base name)")

	if err := uploadFS.Parse(args); err != nil {
		return uploadOptions{}, "", err
	}

	rest := uploadFS.Args()
	if len(rest) != 1 {
		return uploadOptions{}, "", errors.New("usage: satchel upload [--name object] <file>")
	}
	return opts, rest[0], nil
}

func parseDownloadArgs(args []string) (downloadOptions, string, error) {
	downloadFS := flag.NewFlagSet("download", flag.ContinueOnError)
	downloadFS.SetOutput(os.Stderr)

	var opts downloadOptions
	downloadFS.StringVar(&opts.Output, "o", "", "write the object to this path instead of its base name ('-' for stdout)")

	if err := downloadFS.Parse(args); err != nil {
		return downloadOptions{}, "", err
	}

	rest := downloadFS.Args()
	if len(rest) != 1 {
		return downloadOptions{}, "", errors.New("usage: satchel download [-o path] <key>")
	}
	return opts, rest[0], nil
}

func parsePresignArgs(args []string) (presignOptions, string, error) {
	presignFS := flag.NewFlagSet("presign", flag.ContinueOnError)
	presignFS.SetOutput(os.Stderr)

	var opts presignOptions
	presignFS.IntVar(&opts.ExpirySeconds, "expires", 0, "link lifetime in seconds (0 uses presign.expiry_seconds from config)")

	if err := presignFS.Parse(args); err != nil {
		return presignOptions{}, "", err
	}

	rest := presignFS.Args()
	if len(rest) != 1 {
		return presignOptions{}, "", errors.New("usage: satchel presign [--expires seconds] <key>")
	}
	if opts.ExpirySeconds < 0 {
		return presignOptions{}, "", errors.New("expires must be >= 0")
	}
	return opts, rest[0], nil
}

func parseLsArgs(args []string) (lsOptions, error) {
	lsFS := flag.NewFlagSet("ls", flag.ContinueOnError)
	lsFS.SetOutput(os.Stderr)

	var opts lsOptions
	lsFS.StringVar(&opts.Prefix, "prefix", "", "list only keys with this prefix")

	if err := lsFS.Parse(args); err != nil {
		return lsOptions{}, err
	}
	if len(lsFS.Args()) != 0 {
		return lsOptions{}, errors.New("usage: satchel ls [--prefix text]")
	}
	return opts, nil
}

func parseRmArgs(args []string) (string, error) {
	rmFS := flag.NewFlagSet("rm", flag.ContinueOnError)
	rmFS.SetOutput(os.Stderr)

	if err := rmFS.Parse(args); err != nil {
		return "", err
	}

	rest := rmFS.Args()
	if len(rest) != 1 {
		return "", errors.New("usage: satchel rm <key>")
	}
	return rest[0], nil
}

func parseStatusArgs(args []string) (statusOptions, error) {
	statusFS := flag.NewFlagSet("status", flag.ContinueOnError)
	statusFS.SetOutput(os.Stderr)

	var opts statusOptions
	statusFS.StringVar(&opts.Addr, "addr", "", "daemon address (defaults to the listen address from config)")

	if err := statusFS.Parse(args); err != nil {
		return statusOptions{}, err
	}
	if len(statusFS.Args()) != 0 {
		return statusOptions{}, errors.New("usage: satchel status [--addr host:port]")
	}
	return opts, nil
}
