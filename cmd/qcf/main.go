// Command qcf inspects, converts and concatenates qcf event files.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/arloliu/qcf/internal/logger"
)

func main() {
	if err := newApp(os.Stdin, os.Stdout, os.Stderr).Run(context.Background(), os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp(stdin io.Reader, stdout, stderr io.Writer) *cli.Command {
	return &cli.Command{
		Name:      "qcf",
		Usage:     "Quantized event container tool",
		Reader:    stdin,
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "log level (debug, info, warn, error)",
				Value: "warn",
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			log := logger.New(stderr, logger.ParseLevel(c.String("log-level")))
			return logger.WithContext(ctx, log), nil
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return cli.ShowAppHelp(c)
		},
		Commands: []*cli.Command{
			infoCmd(),
			dumpCmd(),
			commentsCmd(),
			catCmd(),
			importCmd(),
		},
	}
}
