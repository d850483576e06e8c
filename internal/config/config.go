// Package config resolves observation parameters for the pipeline commands.
// Values are resolved with increasing priority: built-in defaults, an
// optional YAML parameters file, then SOSS_* environment variables (with
// .env support for local development).
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"soss/internal/logger"
	"soss/pkg/sosstypes"
)

// envKeys are the parameter keys that may be overridden from the
// environment as SOSS_<KEY>.
var envKeys = []string{
	"temperature",
	"wave_min",
	"wave_max",
	"wave_samples",
	"nints",
	"ngroups",
	"filter",
	"subarray",
}

// DefaultParams returns the built-in reference observation: a 2000 K source
// over 0.5-3.0 microns with 2 integrations of 2 groups.
func DefaultParams() sosstypes.ObservationParams {
	return sosstypes.ObservationParams{
		Temperature: 2000,
		WaveMin:     0.5,
		WaveMax:     3.0,
		WaveSamples: 1000,
		NInts:       2,
		NGroups:     2,
		Filter:      sosstypes.FilterClear,
		Subarray:    sosstypes.SubarrayStrip256,
	}
}

// Load resolves the observation parameters. paramsFile may be empty.
// Range validation is left to the components consuming the parameters.
func Load(paramsFile string) (sosstypes.ObservationParams, error) {
	// Best effort: a missing .env is not an error.
	if err := godotenv.Load(); err == nil {
		logger.Debug("Loaded environment from .env")
	}

	params := DefaultParams()

	if paramsFile != "" {
		data, err := os.ReadFile(paramsFile)
		if err != nil {
			return params, fmt.Errorf("reading parameters file: %w", err)
		}
		if err := yaml.Unmarshal(data, &params); err != nil {
			return params, fmt.Errorf("parsing parameters file %s: %w", paramsFile, err)
		}
	}

	if err := applyEnv(&params); err != nil {
		return params, err
	}
	return params, nil
}

// applyEnv overlays SOSS_* environment variables onto the parameters.
func applyEnv(params *sosstypes.ObservationParams) error {
	v := viper.New()
	v.SetEnvPrefix("soss")
	for _, key := range envKeys {
		if err := v.BindEnv(key); err != nil {
			return fmt.Errorf("binding environment key %s: %w", key, err)
		}
	}

	var err error
	if s := v.GetString("temperature"); s != "" {
		if params.Temperature, err = strconv.ParseFloat(s, 64); err != nil {
			return fmt.Errorf("SOSS_TEMPERATURE: %w", err)
		}
	}
	if s := v.GetString("wave_min"); s != "" {
		if params.WaveMin, err = strconv.ParseFloat(s, 64); err != nil {
			return fmt.Errorf("SOSS_WAVE_MIN: %w", err)
		}
	}
	if s := v.GetString("wave_max"); s != "" {
		if params.WaveMax, err = strconv.ParseFloat(s, 64); err != nil {
			return fmt.Errorf("SOSS_WAVE_MAX: %w", err)
		}
	}
	if s := v.GetString("wave_samples"); s != "" {
		if params.WaveSamples, err = strconv.Atoi(s); err != nil {
			return fmt.Errorf("SOSS_WAVE_SAMPLES: %w", err)
		}
	}
	if s := v.GetString("nints"); s != "" {
		if params.NInts, err = strconv.Atoi(s); err != nil {
			return fmt.Errorf("SOSS_NINTS: %w", err)
		}
	}
	if s := v.GetString("ngroups"); s != "" {
		if params.NGroups, err = strconv.Atoi(s); err != nil {
			return fmt.Errorf("SOSS_NGROUPS: %w", err)
		}
	}
	if s := v.GetString("filter"); s != "" {
		params.Filter = sosstypes.Filter(s)
	}
	if s := v.GetString("subarray"); s != "" {
		params.Subarray = sosstypes.Subarray(s)
	}
	return nil
}
