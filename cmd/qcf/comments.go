package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/arloliu/qcf/container"
	"github.com/arloliu/qcf/internal/logger"
)

func commentsCmd() *cli.Command {
	return &cli.Command{
		Name:      "comments",
		Usage:     "Print the comments of a file, one per line",
		ArgsUsage: "FILE",
		Action: func(ctx context.Context, c *cli.Command) error {
			path, err := singleArg(c)
			if err != nil {
				return err
			}

			s, err := container.OpenRead(path, container.WithLogger(logger.FromContext(ctx)))
			if err != nil {
				return err
			}
			defer s.Close()

			for _, comment := range s.Comments() {
				if _, err := fmt.Fprintln(c.Root().Writer, comment); err != nil {
					return err
				}
			}

			return nil
		},
	}
}
