// Package main provides the soss CLI application entry point.
// soss simulates slitless spectroscopy exposures from a model spectrum and
// recovers the spectrum back through the calibration and extraction engine.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"soss/internal/config"
	"soss/internal/exposure"
	"soss/internal/fits"
	"soss/internal/logger"
	"soss/internal/output"
	"soss/internal/plotting"
	"soss/internal/simulator"
	"soss/internal/spectrum"
	"soss/internal/version"
	"soss/pkg/sosstypes"
)

var (
	logLevel   string
	logFile    string
	paramsFile string
	outputDir  string
	methodName string
	sourceName string
	resultName string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "soss",
	Short: "soss - slitless spectroscopy simulation and extraction pipeline",
	Long: `soss chains an exposure simulator and a calibration/extraction engine.
It generates a synthetic blackbody spectrum, simulates a detector exposure,
writes it as a raw FITS file, reloads it through the calibration sequence,
and extracts the 1-D spectral time series for comparison with the input.`,
}

// runCmd executes the complete simulate/calibrate/extract/plot workflow
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the end-to-end simulation and extraction workflow",
	Long: `Run the four workflow stages in sequence: spectrum generation, exposure
simulation and export, calibration with extraction, and plotting.`,
	Run: runWorkflow,
}

// simulateCmd runs only the simulation stage
var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Simulate an exposure and export it as a raw FITS file",
	Run:   runSimulate,
}

// extractCmd calibrates an existing exposure file and extracts spectra
var extractCmd = &cobra.Command{
	Use:   "extract <exposure_uncal.fits>",
	Short: "Calibrate a raw exposure file and extract the 1-D spectra",
	Args:  cobra.ExactArgs(1),
	Run:   runExtract,
}

// plotCmd calibrates, extracts and renders the result plots
var plotCmd = &cobra.Command{
	Use:   "plot <exposure_uncal.fits>",
	Short: "Calibrate, extract and render the extracted spectra",
	Args:  cobra.ExactArgs(1),
	Run:   runPlot,
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Println(version.GetFormattedVersion())
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Set log level (debug|info|warn|error) [default: info]")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Write logs to file instead of stderr")

	if err := viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level")); err != nil {
		fmt.Fprintf(os.Stderr, "Error binding log-level flag: %v\n", err)
		os.Exit(1)
	}
	if err := viper.BindPFlag("log-file", rootCmd.PersistentFlags().Lookup("log-file")); err != nil {
		fmt.Fprintf(os.Stderr, "Error binding log-file flag: %v\n", err)
		os.Exit(1)
	}

	for _, cmd := range []*cobra.Command{runCmd, simulateCmd} {
		cmd.Flags().StringVar(&paramsFile, "params", "", "YAML observation parameters file")
	}
	for _, cmd := range []*cobra.Command{runCmd, simulateCmd, plotCmd} {
		cmd.Flags().StringVar(&outputDir, "output", ".", "Output directory")
	}
	for _, cmd := range []*cobra.Command{runCmd, extractCmd, plotCmd} {
		cmd.Flags().StringVar(&methodName, "method", "sum", "Extraction method identifier")
		cmd.Flags().StringVar(&sourceName, "source", sosstypes.ProductRateInts, "Source data product for extraction")
		cmd.Flags().StringVar(&resultName, "name", "Extracted Spectrum", "Result name in the results mapping")
	}

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(plotCmd)
	rootCmd.AddCommand(versionCmd)

	cobra.OnInitialize(initConfig)
}

func initConfig() {
	if err := logger.Configure(logLevel, logFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error configuring logger: %v\n", err)
		os.Exit(1)
	}
}

// buildStar generates the input spectrum for the configured observation.
func buildStar(params sosstypes.ObservationParams) (*sosstypes.Spectrum, error) {
	grid, err := spectrum.Grid(params.WaveMin, params.WaveMax, params.WaveSamples)
	if err != nil {
		return nil, err
	}
	return spectrum.Blackbody(params.Temperature, grid)
}

// simulate builds and runs a simulation, exporting the raw exposure file,
// and returns the export path together with the input spectrum.
func simulate(params sosstypes.ObservationParams) (string, *sosstypes.Spectrum, error) {
	star, err := buildStar(params)
	if err != nil {
		return "", nil, err
	}

	sim, err := simulator.New(params.NInts, params.NGroups, star,
		simulator.WithFilter(params.Filter),
		simulator.WithSubarray(params.Subarray))
	if err != nil {
		return "", nil, err
	}
	if err := sim.Run(context.Background()); err != nil {
		return "", nil, err
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", nil, err
	}
	path := filepath.Join(outputDir, "soss_simulation"+fits.UncalSuffix)
	if err := sim.Export(path); err != nil {
		return "", nil, err
	}
	return path, star, nil
}

func runWorkflow(_ *cobra.Command, _ []string) {
	logger.Info("Starting soss workflow", "version", version.GetVersion())
	printer := output.NewPrinter()

	params, err := config.Load(paramsFile)
	if err != nil {
		logger.Fatal("Failed to load observation parameters", "error", err)
	}

	path, star, err := simulate(params)
	if err != nil {
		logger.Fatal("Simulation failed", "error", err)
	}

	x, err := exposure.Load(path)
	if err != nil {
		logger.Fatal("Failed to load exposure", "error", err, "file", path)
	}
	if err := x.Calibrate(context.Background()); err != nil {
		logger.Fatal("Calibration failed", "error", err)
	}
	if err := x.Extract(methodName, sourceName, resultName); err != nil {
		logger.Fatal("Extraction failed", "error", err)
	}

	seriesPath := filepath.Join(outputDir, "extracted_timeseries.png")
	if err := x.PlotResults(resultName, seriesPath); err != nil {
		logger.Fatal("Plotting failed", "error", err)
	}
	overlayPath := filepath.Join(outputDir, "input_vs_extracted.png")
	if err := plotting.Overlay(star, x.Results[resultName], 0, overlayPath); err != nil {
		logger.Fatal("Plotting failed", "error", err)
	}

	result := x.Results[resultName]
	printer.Success("Workflow complete")
	printer.Field("Exposure", "%s", x.ID)
	printer.Field("Raw file", "%s", path)
	printer.Field("Result", "%q (%d integrations, %d bins)", resultName, result.NIntegrations(), len(result.Wavelength))
	printer.Field("Time series plot", "%s", seriesPath)
	printer.Field("Overlay plot", "%s", overlayPath)
}

func runSimulate(_ *cobra.Command, _ []string) {
	printer := output.NewPrinter()

	params, err := config.Load(paramsFile)
	if err != nil {
		logger.Fatal("Failed to load observation parameters", "error", err)
	}
	path, _, err := simulate(params)
	if err != nil {
		logger.Fatal("Simulation failed", "error", err)
	}

	printer.Success("Exposure simulated")
	printer.Field("Raw file", "%s", path)
	printer.Field("Integrations", "%d x %d groups", params.NInts, params.NGroups)
}

// loadAndExtract is the shared calibrate-then-extract path of the extract
// and plot commands.
func loadAndExtract(path string) *exposure.Exposure {
	x, err := exposure.Load(path)
	if err != nil {
		logger.Fatal("Failed to load exposure", "error", err, "file", path)
	}
	if err := x.Calibrate(context.Background()); err != nil {
		logger.Fatal("Calibration failed", "error", err)
	}
	if err := x.Extract(methodName, sourceName, resultName); err != nil {
		logger.Fatal("Extraction failed", "error", err)
	}
	return x
}

func runExtract(_ *cobra.Command, args []string) {
	printer := output.NewPrinter()
	x := loadAndExtract(args[0])

	result := x.Results[resultName]
	printer.Success("Extraction complete")
	printer.Field("Exposure", "%s", x.ID)
	printer.Field("Method", "%s", methodName)
	printer.Field("Source", "%s", sourceName)
	printer.Field("Result", "%q (%d integrations, %d bins)", resultName, result.NIntegrations(), len(result.Wavelength))
}

func runPlot(_ *cobra.Command, args []string) {
	printer := output.NewPrinter()
	x := loadAndExtract(args[0])

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		logger.Fatal("Failed to create output directory", "error", err)
	}
	seriesPath := filepath.Join(outputDir, "extracted_timeseries.png")
	if err := x.PlotResults(resultName, seriesPath); err != nil {
		logger.Fatal("Plotting failed", "error", err)
	}

	printer.Success("Plots rendered")
	printer.Field("Time series plot", "%s", seriesPath)
}
