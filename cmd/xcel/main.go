package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	xerrors "github.com/xcel-dev/xcel/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const banner = `
  ─┐ ┬┌─┐┌─┐┬
  ┌┴┬┘│  ├┤ │
  ┴ └─└─┘└─┘┴─┘
`

// globalFlags are shared by every command.
type globalFlags struct {
	configDir string
	envFile   string
	noColor   bool
}

// errReported is returned by commands that already wrote their error,
// such as ingest --json. main exits non-zero without printing it again.
var errReported = errors.New("error already reported")

func main() {
	var flags globalFlags

	rootCmd := &cobra.Command{
		Use:   "xcel",
		Short: "Excel admin upload server",
		Long: `xcel serves an administrative endpoint for uploading Excel workbooks.

Uploaded workbooks are size-checked, archived, parsed sheet by sheet,
and their rows stored in Postgres. The same endpoint answers browser
forms with HTML pages and API clients with JSON.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := loadEnvFile(flags.envFile); err != nil {
				return err
			}
			if flags.noColor || os.Getenv("NO_COLOR") != "" {
				xerrors.DisableColors()
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVarP(&flags.configDir, "config", "c", ".", "Directory containing xcel.json")
	rootCmd.PersistentFlags().StringVar(&flags.envFile, "env-file", ".env", "Environment file to load before reading configuration")
	rootCmd.PersistentFlags().BoolVar(&flags.noColor, "no-color", false, "Disable colored error output")

	rootCmd.AddCommand(
		serveCmd(&flags),
		ingestCmd(&flags),
		pruneCmd(&flags),
		explainCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errReported) {
			xerrors.PrintError(os.Stderr, err)
		}
		os.Exit(1)
	}
}

// loadEnvFile loads path into the environment without overriding
// variables that are already set. A missing file is ignored.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return xerrors.New(xerrors.CodeConfigRead).
			WithDetail("Failed to load environment file " + path).
			Wrap(err)
	}
	return nil
}

// printBanner prints the ASCII art banner.
func printBanner() {
	fmt.Print(banner)
}

// success prints a success message.
func success(format string, args ...any) {
	fmt.Printf("\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(format string, args ...any) {
	fmt.Printf("  %s\n", fmt.Sprintf(format, args...))
}

// warn prints a warning message.
func warn(format string, args ...any) {
	fmt.Printf("\033[33m⚠\033[0m %s\n", fmt.Sprintf(format, args...))
}
