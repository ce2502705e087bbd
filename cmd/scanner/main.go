// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Command scanner is the terminal front end for the validation service.
// Decoded QR payloads are read from stdin, one per line.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"

	"github.com/danielhkuo/quickly-validate/client"
	"github.com/danielhkuo/quickly-validate/deviceid"
	"github.com/danielhkuo/quickly-validate/scanner"
)

const defaultCode = "Asamblea de circuito"

// replaced in tests
var (
	stdin  io.Reader = os.Stdin
	stdout io.Writer = os.Stdout
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:  "scanner",
		Usage: "scan and validate attendance codes",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "server",
				Value:   "http://localhost:3318",
				Usage:   "Validation API base URL",
				Sources: cli.EnvVars("VALIDATE_SERVER_URL"),
			},
			&cli.StringFlag{
				Name:    "device-file",
				Usage:   "Where the device id is stored (default: user config dir)",
				Sources: cli.EnvVars("VALIDATE_DEVICE_FILE"),
			},
			&cli.BoolFlag{
				Name:    "debug",
				Value:   false,
				Usage:   "Enable debug logging",
				Sources: cli.EnvVars("VALIDATE_DEBUG"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "scan",
				Usage: "Open a scanning session on decoded payloads from stdin",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "code",
						Value:   defaultCode,
						Usage:   "The only code that is accepted",
						Sources: cli.EnvVars("VALIDATE_EXPECTED_CODE"),
					},
				},
				Action: func(ctx context.Context, command *cli.Command) error {
					setupLogging(command)
					return runScan(ctx, command, stdin)
				},
			},
			{
				Name:  "count",
				Usage: "Print the number of validations",
				Action: func(ctx context.Context, command *cli.Command) error {
					setupLogging(command)
					total, err := newClient(command).Count(ctx)
					if err != nil {
						return err
					}
					fmt.Fprintf(stdout, "%s validations\n", humanize.Comma(total))
					return nil
				},
			},
			{
				Name:  "clear",
				Usage: "Delete every validation",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "yes",
						Aliases: []string{"y"},
						Usage:   "Do not ask for confirmation",
					},
				},
				Action: func(ctx context.Context, command *cli.Command) error {
					setupLogging(command)
					return runClear(ctx, command, stdin, stdout)
				},
			},
			{
				Name:  "device-id",
				Usage: "Print this device's identifier, creating it if needed",
				Action: func(ctx context.Context, command *cli.Command) error {
					setupLogging(command)
					id, err := loadDeviceID(command)
					if err != nil {
						return err
					}
					fmt.Fprintln(stdout, id)
					return nil
				},
			},
		},
	}
}

func setupLogging(command *cli.Command) {
	level := slog.LevelWarn
	if command.Bool("debug") {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

func newClient(command *cli.Command) *client.Client {
	return client.New(command.String("server"))
}

func loadDeviceID(command *cli.Command) (string, error) {
	path := command.String("device-file")
	if path == "" {
		var err error
		path, err = deviceid.DefaultPath()
		if err != nil {
			return "", err
		}
	}
	return deviceid.Load(path)
}

func runScan(ctx context.Context, command *cli.Command, in io.Reader) error {
	deviceID, err := loadDeviceID(command)
	if err != nil {
		return err
	}

	closed := make(chan struct{}, 1)
	cam := scanner.NewReaderCamera(in)
	s := scanner.New(cam, newClient(command), scanner.Config{
		ExpectedCode: command.String("code"),
		DeviceID:     deviceID,
		OnChange: func(v scanner.View) {
			printView(stdout, v)
			if v.State == scanner.Closed {
				select {
				case closed <- struct{}{}:
				default:
				}
			}
		},
	})
	defer s.Shutdown()

	if err := s.Refresh(ctx); err != nil {
		slog.Warn("could not load count", "error", err)
	}
	if err := s.Open(ctx); err != nil {
		return err
	}

	select {
	case <-closed:
	case <-cam.Done():
		// let a submission triggered by the last line finish
		s.Wait()
	case <-ctx.Done():
	}

	v := s.View()
	s.Shutdown()
	if err := cam.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}
	if v.Error != "" {
		return errors.New(v.Error)
	}
	return nil
}

func printView(w io.Writer, v scanner.View) {
	switch {
	case v.Error != "":
		fmt.Fprintf(w, "[%s] %s\n", v.State, v.Error)
	case v.ShowSuccess:
		fmt.Fprintf(w, "[%s] validated, total %s\n", v.State, humanize.Comma(v.Count))
	case v.InFlight:
		fmt.Fprintf(w, "[%s] submitting...\n", v.State)
	default:
		fmt.Fprintf(w, "[%s] total %s\n", v.State, humanize.Comma(v.Count))
	}
}

func runClear(ctx context.Context, command *cli.Command, in io.Reader, out io.Writer) error {
	c := newClient(command)

	if !command.Bool("yes") {
		total, err := c.Count(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Delete all %s validations? This cannot be undone. Type 'yes' to continue: ", humanize.Comma(total))
		answer, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		if strings.ToLower(strings.TrimSpace(answer)) != "yes" {
			fmt.Fprintln(out, "Aborted.")
			return nil
		}
	}

	deleted, err := c.Clear(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Deleted %s validations.\n", humanize.Comma(deleted))
	return nil
}
