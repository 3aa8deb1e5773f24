package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/allisson/vaulty/cmd/app/commands"
	"github.com/allisson/vaulty/internal/app"
	"github.com/allisson/vaulty/internal/config"
)

func getKeyCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "keygen",
			Usage: "Generate the node key material (RSA pair, sealing key, signing pair)",
			Flags: []cli.Flag{
				&cli.IntFlag{
					Name:    "bits",
					Aliases: []string{"b"},
					Value:   4096,
					Usage:   "RSA key size in bits",
				},
				&cli.BoolFlag{
					Name:    "force",
					Aliases: []string{"f"},
					Value:   false,
					Usage:   "Overwrite existing key files",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				return commands.RunKeygen(
					cfg,
					container.Logger(),
					int(cmd.Int("bits")),
					cmd.Bool("force"),
				)
			},
		},
		{
			Name:  "rotate-keypair",
			Usage: "Generate a new RSA key pair and re-wrap every stored data key under it",
			Flags: []cli.Flag{
				&cli.IntFlag{
					Name:    "bits",
					Aliases: []string{"b"},
					Value:   4096,
					Usage:   "RSA key size in bits",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				db, err := container.Database()
				if err != nil {
					return err
				}

				envelope, err := container.Envelope()
				if err != nil {
					return err
				}

				return commands.RunRotateKeypair(
					ctx,
					db,
					envelope,
					cfg,
					container.Logger(),
					int(cmd.Int("bits")),
				)
			},
		},
	}
}
