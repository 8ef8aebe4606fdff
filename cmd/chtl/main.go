// Command chtl is the compiler's CLI surface (spec.md §6): a thin
// collaborator around the chtl package's Compile entry point, restructured
// around github.com/spf13/cobra since the teacher's own cmd/ entrypoint
// (cmd/design-tokens-language-server/main.go) is an LSP server with no
// positional-argument CLI to imitate directly.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"chtl.dev/chtl"
	"chtl.dev/chtl/internal/chtlconfig"
	"chtl.dev/chtl/internal/log"
	"github.com/spf13/cobra"
)

var (
	flagStrict     bool
	flagWideScan   bool
	flagStrictScan bool
	flagDebug      bool
	flagConfigFile string
	flagPreset     string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "chtl <input-file> [output-file]",
	Short: "Compile a CHTL source file into HTML and CSS",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runCompile,
}

func init() {
	rootCmd.Flags().BoolVar(&flagStrict, "strict", false, "promote warning-level diagnostics to errors")
	rootCmd.Flags().BoolVar(&flagWideScan, "wide-scan", true, "use the lenient Unified Scanner boundary judgment")
	rootCmd.Flags().BoolVar(&flagStrictScan, "strict-scan", false, "use the strict Unified Scanner boundary judgment (overrides --wide-scan)")
	rootCmd.Flags().BoolVar(&flagDebug, "debug", false, "log input/output paths and result counts at debug level")
	rootCmd.Flags().StringVar(&flagConfigFile, "config-file", "", "path to a YAML file of named [Configuration] presets")
	rootCmd.Flags().StringVar(&flagPreset, "preset", "", "named preset to apply from --config-file")
}

func runCompile(cmd *cobra.Command, args []string) error {
	if flagDebug {
		log.SetLevel(log.LevelDebug)
	}

	inputPath := args[0]
	outputPath := "output.html"
	if len(args) == 2 {
		outputPath = args[1]
	}
	log.Debug("compiling %s -> %s", inputPath, outputPath)

	source, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("reading %s: %w", inputPath, err)
	}

	cfg := chtlconfig.Default()
	if flagConfigFile != "" {
		pf, err := chtlconfig.LoadPresetFile(flagConfigFile)
		if err != nil {
			return err
		}
		if flagPreset != "" {
			cfg, err = pf.Apply(cfg, flagPreset)
			if err != nil {
				return err
			}
		}
	}

	opts := []chtl.Option{chtl.WithConfig(cfg)}
	if flagStrict {
		opts = append(opts, chtl.WithStrict())
	}
	opts = append(opts, chtl.WithWideScan(flagWideScan && !flagStrictScan))
	if flagDebug {
		opts = append(opts, chtl.WithDebug())
	}

	res := chtl.Compile(string(source), inputPath, opts...)

	for _, d := range res.Warnings {
		fmt.Fprintln(os.Stderr, d.String())
	}
	for _, d := range res.Errors {
		fmt.Fprintln(os.Stderr, d.String())
	}

	if len(res.Errors) > 0 {
		return fmt.Errorf("compilation of %s failed with %d error(s)", inputPath, len(res.Errors))
	}
	log.Debug("%s produced %d byte(s) of HTML, %d byte(s) of CSS, %d warning(s)", inputPath, len(res.HTML), len(res.CSS), len(res.Warnings))

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	if err := os.WriteFile(outputPath, []byte(res.HTML), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", outputPath, err)
	}

	if css := strings.TrimSpace(res.CSS); css != "" {
		cssPath := strings.TrimSuffix(outputPath, filepath.Ext(outputPath)) + ".css"
		if err := os.WriteFile(cssPath, []byte(res.CSS), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", cssPath, err)
		}
	}

	return nil
}
