// Package config loads typed settings for the healthcare services from the
// process environment. Values from an optional .env file are exported first,
// so AZURE_OPENAI_*, DATABASE_URL, QDRANT_*, REDIS_URL, AGENTn_FUNCTION_KEY
// and the listen addresses can live in one file during local runs.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"
)

const defaultEnvFile = ".env"

var (
	envFilePath string
	resolveOnce sync.Once
)

// UseEnvFile pins the .env path and skips flag parsing. kbctl calls this
// from its --env flag before the first New.
func UseEnvFile(path string) {
	resolveOnce.Do(func() {})
	envFilePath = path
}

// MustNew is New for service startup, where a bad setting is fatal.
func MustNew[T any](prefix string) *T {
	conf, err := New[T](prefix)
	if err != nil {
		panic(err)
	}
	return conf
}

// New fills T from variables named PREFIX_FIELD (or the explicit envconfig
// tag). The services use prefixes AZURE_OPENAI, DATABASE, QDRANT and LOG;
// agent routing and cache settings load with an empty prefix.
func New[T any](prefix string) (*T, error) {
	if err := exportEnvFile(); err != nil {
		return nil, err
	}

	var conf T
	if err := envconfig.Process(prefix, &conf); err != nil {
		return nil, fmt.Errorf("load %s config: %w", prefixLabel(prefix), err)
	}
	return &conf, nil
}

// exportEnvFile reads the -env file when one was given, else ./.env if it
// exists. A missing explicit file is an error; a missing default is not.
func exportEnvFile() error {
	if path := resolveEnvPath(); path != "" {
		if err := exportEnvironment(path); err != nil {
			return fmt.Errorf("failed to load env file %s: %w", path, err)
		}
		return nil
	}

	info, err := os.Stat(defaultEnvFile)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return nil
	case err != nil:
		return fmt.Errorf("failed to load default env file: %w", err)
	case info.IsDir():
		return nil
	}
	if err := exportEnvironment(defaultEnvFile); err != nil {
		return fmt.Errorf("failed to load default env file: %w", err)
	}
	return nil
}

func resolveEnvPath() string {
	resolveOnce.Do(func() {
		if flag.Lookup("env") == nil {
			flag.StringVar(&envFilePath, "env", "", "path to .env file")
		}
		if !flag.Parsed() {
			flag.Parse()
		}
	})
	return strings.TrimSpace(envFilePath)
}

// exportEnvironment copies every key of the file into the process
// environment, upper-cased, overriding values already set.
func exportEnvironment(path string) error {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("env")
	if err := v.ReadInConfig(); err != nil {
		return err
	}

	for k, val := range v.AllSettings() {
		if err := os.Setenv(strings.ToUpper(k), fmt.Sprint(val)); err != nil {
			return err
		}
	}
	return nil
}

func prefixLabel(prefix string) string {
	if prefix == "" {
		return "unprefixed"
	}
	return prefix
}
