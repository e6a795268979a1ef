package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/openkeyhub/governance/internal/export"
	"github.com/openkeyhub/governance/internal/setup"
	"github.com/openkeyhub/governance/internal/setup/config"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		log.Printf("Error: %v", err)
		os.Exit(1)
	}
}

func run() error {
	app := &cli.Command{
		Name:  "export",
		Usage: "Export finalized proposals and anonymised votes to SQLite and CSV",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Value:   "exports",
				Usage:   "Base output directory for export files",
			},
			&cli.StringFlag{
				Name:    "salt",
				Aliases: []string{"s"},
				Usage:   "Salt for hashing principals, overrides the config file",
			},
			&cli.StringFlag{
				Name:    "export-version",
				Aliases: []string{"v"},
				Value:   "1.0.0",
				Usage:   "Export version",
			},
			&cli.StringFlag{
				Name:    "description",
				Aliases: []string{"d"},
				Value:   "Governance export",
				Usage:   "Export description",
			},
			&cli.StringFlag{
				Name:    "hash-type",
				Aliases: []string{"t"},
				Usage:   "Hash algorithm to use (argon2id or sha256), overrides the config file",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			app, err := setup.InitializeApp(ctx, setup.Options{Component: "export", SkipRedis: true})
			if err != nil {
				return fmt.Errorf("failed to initialize application: %w", err)
			}
			defer app.Cleanup(context.Background())

			exportConfig, err := getExportConfig(c, &app.Config.Export)
			if err != nil {
				return fmt.Errorf("failed to get export configuration: %w", err)
			}

			// Create timestamped output directory
			timestamp := time.Now().UTC().Format("2006-01-02_150405")
			outDir := filepath.Join(c.String("output"), timestamp)
			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}

			summary, err := export.New(app.Engine, outDir, exportConfig, app.Logger).ExportAll(ctx)
			if err != nil {
				return fmt.Errorf("failed to export data: %w", err)
			}

			app.Logger.Info("Files written",
				zap.String("outDir", outDir),
				zap.Int("proposals", summary.Proposals),
				zap.Int("votes", summary.Votes),
				zap.Int("voters", summary.Voters))
			return nil
		},
	}

	return app.Run(context.Background(), os.Args)
}

// getExportConfig merges CLI flags over the config file and prompts for a missing salt.
func getExportConfig(c *cli.Command, cfg *config.Export) (*export.Config, error) {
	exportConfig := &export.Config{
		ExportVersion: c.String("export-version"),
		Salt:          cfg.Salt,
		Description:   c.String("description"),
		HashType:      export.HashType(cfg.HashType),
		Iterations:    cfg.Iterations,
		Memory:        cfg.Memory,
		Concurrency:   cfg.Concurrency,
	}

	if salt := c.String("salt"); salt != "" {
		exportConfig.Salt = salt
	}
	if hashType := c.String("hash-type"); hashType != "" {
		exportConfig.HashType = export.HashType(hashType)
	}

	if exportConfig.Salt == "" {
		salt, err := promptString(bufio.NewReader(os.Stdin), "Enter salt for hashing principals")
		if err != nil {
			return nil, fmt.Errorf("failed to read salt: %w", err)
		}
		exportConfig.Salt = salt
	}

	if err := exportConfig.Validate(); err != nil {
		return nil, err
	}
	return exportConfig, nil
}

// promptString prompts for a string value.
func promptString(reader *bufio.Reader, prompt string) (string, error) {
	fmt.Print(prompt + ": ")

	input, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(input), nil
}
