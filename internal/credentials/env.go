package credentials

import (
	"context"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
)

// Environment variable names read by EnvProvider.
const (
	EnvUsername = "SOFI_AUTH_USERNAME"
	EnvPassword = "SOFI_AUTH_PASSWORD"
)

// EnvProvider reads credentials from the process environment, falling back
// to values found in .env-style files. The process environment wins.
type EnvProvider struct {
	files  []string
	lookup func(string) (string, bool)
	logger *slog.Logger
}

// NewEnvProvider returns a provider that consults the given .env files on
// every call. Missing files are skipped.
func NewEnvProvider(logger *slog.Logger, files ...string) *EnvProvider {
	if logger == nil {
		logger = slog.Default()
	}
	return &EnvProvider{files: files, lookup: os.LookupEnv, logger: logger}
}

// Credentials implements Provider. An empty pair is not an error here; the
// gateway decides what to do with it.
func (p *EnvProvider) Credentials(_ context.Context) (Credentials, error) {
	fileVals := p.readFiles()

	get := func(key string) string {
		if v, ok := p.lookup(key); ok && v != "" {
			return v
		}
		return fileVals[key]
	}

	return Credentials{Identity: get(EnvUsername), Secret: get(EnvPassword)}, nil
}

func (p *EnvProvider) readFiles() map[string]string {
	vals := make(map[string]string)
	for _, f := range p.files {
		m, err := godotenv.Read(f)
		if err != nil {
			if !os.IsNotExist(err) {
				p.logger.Warn("could not read env file", "file", f, "error", err)
			}
			continue
		}
		for k, v := range m {
			if _, seen := vals[k]; !seen {
				vals[k] = v
			}
		}
	}
	return vals
}
