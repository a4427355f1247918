package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/vidra-cli/vidra/internal/app"
	"github.com/vidra-cli/vidra/internal/download"
	"github.com/vidra-cli/vidra/internal/fetch"
	"github.com/vidra-cli/vidra/internal/library"
	"github.com/vidra-cli/vidra/internal/progress"
	"github.com/vidra-cli/vidra/internal/settings"
	"github.com/vidra-cli/vidra/internal/term"
)

//nolint:gochecknoglobals // Cobra requires package-level vars for flag bindings in current structure.
var (
	// Version metadata populated at build time via -ldflags.
	releaseVersion = "dev"
	commit         = "none"
	date           = "unknown"

	// Used for flags.
	settingsFile = settings.DefaultPath()
	verbose      bool

	// get flags.
	getFormat   string
	getOutput   string
	getParallel int
	getRetries  int

	rootCmd = &cobra.Command{
		Use:   "vidra",
		Short: "An interactive terminal downloader for remote video sources.",
		Long: `vidra lets you pick one of the encodings a remote video source offers and
download it with live progress. Run with no arguments for the interactive
menu, or use the get subcommand for scripted downloads.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !term.Interactive() {
				return fmt.Errorf("interactive terminal required: run vidra in a terminal, or use 'vidra get'")
			}
			fetch.Install(cmd.Context())
			st := settings.NewStore(settingsFile)
			return app.New(st).Run(cmd.Context())
		},
	}
)

//nolint:gochecknoinits // Cobra command wiring performed in init in current structure.
func init() {
	// Route logs to stderr to avoid polluting stdout; the menu renderer and
	// the progress aggregator own stdout.
	logrus.SetOutput(os.Stderr)
	logrus.SetLevel(logrus.WarnLevel)

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable detailed logging output")
	rootCmd.PersistentFlags().StringVar(&settingsFile, "settings", settingsFile, "Path to the settings file")
	cobra.OnInitialize(func() {
		if verbose {
			logrus.SetLevel(logrus.DebugLevel)
		}
	})

	getCmd.Flags().StringVarP(&getFormat, "format", "f", "best", "Format id to download")
	getCmd.Flags().StringVarP(&getOutput, "output", "o", "", "Destination directory (defaults to the configured output folder)")
	getCmd.Flags().IntVarP(&getParallel, "parallel", "p", 0, "Maximum parallel downloads (defaults to the configured value)")
	getCmd.Flags().IntVarP(&getRetries, "retries", "r", 0, "Attempts per download (defaults to the configured value)")

	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(libraryCmd)

	// Built-in version flag: set version string and a custom template.
	rootCmd.Version = releaseVersion
	rootCmd.Annotations = map[string]string{"commit": commit, "date": date}
	rootCmd.SetVersionTemplate("{{printf \"%s %s\\ncommit: %s\\ndate: %s\\n\" .DisplayName .Version (index .Annotations \"commit\") (index .Annotations \"date\")}}")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		logrus.Fatal(err)
	}
}

//nolint:gochecknoglobals // Cobra command is defined at package scope in current structure.
var getCmd = &cobra.Command{
	Use:   "get URL...",
	Short: "Download one or more URLs without the interactive menu",
	Long:  "Download the given URLs directly. Progress for all transfers is aggregated on stdout; the command fails if any download fails after its retries.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st := settings.NewStore(settingsFile)
		destDir := getOutput
		if destDir == "" {
			destDir = st.OutputDir()
		}
		parallel := getParallel
		if parallel < 1 {
			parallel = st.Record.ParallelDownloads
		}
		retries := getRetries
		if retries < 1 {
			retries = st.Record.RetryAttempts
		}

		if err := os.MkdirAll(destDir, 0o700); err != nil {
			return fmt.Errorf("creating output folder: %w", err)
		}

		fetch.Install(cmd.Context())
		fetcher := fetch.NewYTDLPService(st.Record.OverwriteExisting)
		orch := download.New(fetcher, progress.NewAggregator())

		outcomes := orch.Run(cmd.Context(), buildJobs(args, getFormat, destDir, retries), parallel)
		if failed := printOutcomes(cmd.OutOrStdout(), outcomes); failed > 0 {
			return fmt.Errorf("%d of %d downloads failed", failed, len(outcomes))
		}
		return nil
	},
}

//nolint:gochecknoglobals // Cobra command is defined at package scope in current structure.
var libraryCmd = &cobra.Command{
	Use:   "library",
	Short: "List media already present in the output folder",
	RunE: func(cmd *cobra.Command, _ []string) error {
		st := settings.NewStore(settingsFile)
		entries, err := library.Scan(st.OutputDir())
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No downloaded media yet.")
			return nil
		}
		for _, e := range entries {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d\n", e.Path, e.SizeBytes)
		}
		return nil
	},
}

func main() {
	Execute()
}
