// Command s3publish uploads build artifacts to an S3 bucket and optionally
// removes the objects the upload did not produce.
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

func main() {
	app := newApp()
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitFailed)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "s3publish",
		Usage: "Publish local files to an S3 bucket",
		Flags: flags(),
		// Glob patterns may contain commas, e.g. "*.{html,css}".
		DisableSliceFlagSeparator: true,

		Action: func(c *cli.Context) error {
			code := run(c)
			if code != exitOK {
				return cli.Exit("", code)
			}
			return nil
		},
	}
}

func flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "config",
			Usage: "Path to a YAML config file (default: .s3publish.yaml in the working directory)",
		},
		&cli.StringFlag{
			Name:  "env-file",
			Usage: "Environment file loaded before the config",
			Value: ".env",
		},
		&cli.StringFlag{Name: "bucket", Usage: "Destination bucket"},
		&cli.StringFlag{Name: "region", Usage: "Bucket region"},
		&cli.StringSliceFlag{Name: "files", Usage: "Glob pattern selecting files to publish (repeatable)"},
		&cli.StringSliceFlag{Name: "exclude", Usage: "Glob pattern removing files from the selection (repeatable)"},
		&cli.StringFlag{Name: "workdir", Usage: "Directory patterns are resolved against"},
		&cli.StringFlag{Name: "revision", Usage: "Commit that triggered the publish"},
		&cli.BoolFlag{Name: "sync", Usage: "Delete objects the run did not upload"},
		&cli.StringFlag{Name: "params-ext", Usage: "Extension of per-file descriptors, e.g. .s3params"},
		&cli.StringFlag{Name: "prefix", Usage: "Prefix added to every key"},
		&cli.StringFlag{Name: "strip-prefix", Usage: "Prefix removed from local paths before keys are built"},
		&cli.StringFlag{Name: "index", Usage: "Local path of the site entry page"},
		&cli.StringFlag{Name: "link-label", Usage: "Label printed with the entry page link"},
		&cli.StringFlag{Name: "backend", Usage: "Storage client: aws or minio"},
		&cli.StringFlag{Name: "endpoint", Usage: "S3-compatible endpoint"},
		&cli.StringFlag{Name: "proxy", Usage: "HTTP(S) proxy for storage requests"},
		&cli.BoolFlag{Name: "force-path-style", Usage: "Use path-style bucket addressing"},
		&cli.BoolFlag{Name: "disable-ssl", Usage: "Use http for endpoints given without a scheme"},
		&cli.DurationFlag{Name: "timeout", Usage: "Per-request timeout"},
		&cli.IntFlag{Name: "max-retries", Usage: "Maximum attempts per request"},
		&cli.StringFlag{Name: "credentials-secret", Usage: "Secrets Manager secret holding the key pair"},
		&cli.StringFlag{Name: "log-level", Usage: "debug, info, warn or error"},
		&cli.StringFlag{Name: "log-format", Usage: "text or json"},
	}
}

// Config keys set by flags, by flag name.
var (
	stringKeys = map[string]string{
		"bucket":             "bucket",
		"region":             "region",
		"workdir":            "workdir",
		"revision":           "revision",
		"params-ext":         "params_ext",
		"prefix":             "prefix",
		"strip-prefix":       "strip_prefix",
		"index":              "index",
		"link-label":         "link_label",
		"backend":            "backend",
		"endpoint":           "endpoint",
		"proxy":              "proxy",
		"credentials-secret": "credentials_secret",
		"log-level":          "log.level",
		"log-format":         "log.format",
	}
	boolKeys = map[string]string{
		"sync":             "sync",
		"force-path-style": "force_path_style",
		"disable-ssl":      "disable_ssl",
	}
	sliceKeys = map[string]string{
		"files":   "files",
		"exclude": "exclude",
	}
)

// overrides returns the config values given explicitly on the command line.
func overrides(c *cli.Context) map[string]any {
	out := make(map[string]any)
	for flag, key := range stringKeys {
		if c.IsSet(flag) {
			out[key] = c.String(flag)
		}
	}
	for flag, key := range boolKeys {
		if c.IsSet(flag) {
			out[key] = c.Bool(flag)
		}
	}
	for flag, key := range sliceKeys {
		if c.IsSet(flag) {
			out[key] = c.StringSlice(flag)
		}
	}
	if c.IsSet("timeout") {
		out["timeout"] = c.Duration("timeout")
	}
	if c.IsSet("max-retries") {
		out["max_retries"] = c.Int("max-retries")
	}
	return out
}
