package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Environment variables read by LoadEnv.
const (
	EnvTune  = "ECUSIM_TUNE"
	EnvSeed  = "ECUSIM_SEED"
	EnvTrace = "ECUSIM_TRACE"
)

// Env holds the settings that may come from the environment or a .env file.
type Env struct {
	TunePath  string
	Seed      uint64
	HasSeed   bool
	TracePath string
}

// LoadEnv loads the given .env files, if present, into the process
// environment and reads the simulator settings from it. Variables already
// set take precedence over the files.
func LoadEnv(files ...string) (Env, error) {
	for _, f := range files {
		err := godotenv.Load(f)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Env{}, fmt.Errorf("config: loading %s: %w", f, err)
		}
	}

	env := Env{
		TunePath:  os.Getenv(EnvTune),
		TracePath: os.Getenv(EnvTrace),
	}

	if s := os.Getenv(EnvSeed); s != "" {
		seed, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return Env{}, fmt.Errorf("config: %s=%q: %w", EnvSeed, s, err)
		}

		env.Seed = seed
		env.HasSeed = true
	}

	return env, nil
}
