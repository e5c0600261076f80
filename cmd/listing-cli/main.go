// cmd/listing-cli/main.go
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"listing-generator/internal/cli"
	"listing-generator/internal/common/config"
	"listing-generator/internal/common/logger"
	"listing-generator/internal/generator"
	"listing-generator/internal/listing"
)

var (
	configDir   string
	baseURL     string
	listingType string
	location    string
	description string
	keyElements string
	jsonOutput  bool
	noPrompt    bool
	verbose     bool
)

var rootCmd = &cobra.Command{
	Use:           "listing-cli",
	Short:         "Generate property listing copy from the terminal",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Fill in the listing form and generate a description",
	Long: `Pre-fill any field with flags. Fields that are missing or fail
validation are prompted for interactively, unless --no-prompt is set.`,
	Args: cobra.NoArgs,
	RunE: runGenerate,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "directory holding config.yaml (default: search ./configs)")
	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url", "", "generation service base URL (overrides generator.base_url)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log at debug level to stderr")

	generateCmd.Flags().StringVar(&listingType, "type", "", "listing type: sale or rent")
	generateCmd.Flags().StringVar(&location, "location", "", "property location")
	generateCmd.Flags().StringVar(&description, "description", "", "short description of the property")
	generateCmd.Flags().StringVar(&keyElements, "key-elements", "", "key selling points")
	generateCmd.Flags().BoolVar(&jsonOutput, "json", false, "print the result as JSON")
	generateCmd.Flags().BoolVar(&noPrompt, "no-prompt", false, "fail instead of prompting for missing fields")

	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	if baseURL != "" {
		if err := os.Setenv("GENERATOR_BASE_URL", baseURL); err != nil {
			return err
		}
	}

	var (
		cfg *config.Config
		err error
	)
	if configDir != "" {
		cfg, err = config.LoadFromDir(configDir)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}

	level := "warn"
	if verbose {
		level = "debug"
	}
	log := logger.NewStructured(level, "console")

	parsedType, err := listing.ParseListingType(listingType)
	if err != nil {
		return err
	}

	gen := generator.NewClient(generator.Config{
		BaseURL: cfg.Generator.BaseURL,
		Path:    cfg.Generator.Path,
		Timeout: config.GetDuration(cfg.Generator.Timeout),
	}, log)

	svc := listing.NewService(&listing.Config{
		ProgressInterval:     config.GetDuration(cfg.Listing.ProgressInterval),
		ClearResultOnFailure: cfg.Listing.ClearResultOnFailure,
	}, gen, listing.NewMemoryStore(), log)
	defer svc.Close()

	opts := cli.Options{
		Form: listing.FormState{
			Type:         parsedType,
			Location:     location,
			PropertyDesc: description,
			KeyElements:  keyElements,
		},
		JSON:   jsonOutput,
		Out:    cmd.OutOrStdout(),
		ErrOut: cmd.ErrOrStderr(),
	}
	if !noPrompt {
		opts.Prompter = cli.NewSurveyPrompter()
	}

	_, err = cli.Generate(cmd.Context(), svc, opts)
	return err
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		// the generic message has already been printed
		if !errors.Is(err, cli.ErrGenerationFailed) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}
