// Package config loads the pipeline configuration from an optional YAML
// file with environment variable overrides. A .env file is honoured
// before overrides are applied.
package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// GetConfigPath returns the config path from CONFIG_PATH or the default.
func GetConfigPath(defaultPath string) string {
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		return path
	}
	return defaultPath
}

// load reads the YAML file at path into cfg, then applies env overrides
// declared through `env:"VAR"` struct tags. A missing config file is not
// an error: defaults plus environment cover the common deployment.
func load(path string, cfg *Config) error {
	if envErr := godotenv.Load(".env"); envErr != nil && !os.IsNotExist(envErr) {
		return fmt.Errorf("load .env: %w", envErr)
	}

	data, readErr := os.ReadFile(path)
	switch {
	case readErr == nil:
		if parseErr := yaml.Unmarshal(data, cfg); parseErr != nil {
			return fmt.Errorf("parse config %s: %w", path, parseErr)
		}
	case os.IsNotExist(readErr):
		// Defaults + env only.
	default:
		return fmt.Errorf("read config %s: %w", path, readErr)
	}

	applyEnvOverrides(cfg)
	return nil
}

// applyEnvOverrides re-applies environment overrides; callers invoke it
// again after defaults so env always wins.
func applyEnvOverrides(cfg *Config) {
	applyEnvToStruct(reflect.ValueOf(cfg).Elem())
}

// applyEnvToStruct walks the struct and overrides tagged fields from the
// environment. Env always wins over file values and defaults.
func applyEnvToStruct(v reflect.Value) {
	if v.Kind() != reflect.Struct {
		return
	}

	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		if !field.CanSet() {
			continue
		}

		if field.Kind() == reflect.Struct {
			applyEnvToStruct(field)
			continue
		}

		envTag := t.Field(i).Tag.Get("env")
		if envTag == "" {
			continue
		}

		envVal := os.Getenv(envTag)
		if envVal == "" {
			continue
		}

		setFieldFromString(field, envVal)
	}
}

func setFieldFromString(field reflect.Value, val string) {
	switch field.Kind() {
	case reflect.String:
		field.SetString(val)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			if d, err := time.ParseDuration(val); err == nil {
				field.SetInt(int64(d))
			}
			return
		}
		if i, err := strconv.ParseInt(val, 10, 64); err == nil {
			field.SetInt(i)
		}

	case reflect.Float32, reflect.Float64:
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			field.SetFloat(f)
		}

	case reflect.Bool:
		field.SetBool(parseBool(val))
	}
}

// parseBool returns true for "true", "1", "yes" (case-insensitive).
func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "true" || s == "1" || s == "yes"
}
