package config

import (
	"flag"
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {

	// Test cases
	tests := []struct {
		expected    *Config
		name        string
		args        []string
		expectPanic bool
	}{
		{name: "Test1 OK", args: []string{"cmd",
			"-t", "123:abc", "-a", "http://localhost:8081", "-l", "20", "-d", "db",
			"-s", "s3", "-f", "/var/files", "-u", "user", "-p", "password",
			"-b", "bucket", "-g", "us-west-1", "-e", "http://endpoint", "-i", "15",
		}, expectPanic: false,
			expected: &Config{
				TelegramToken:       "123:abc",
				TelegramAPIEndpoint: "http://localhost:8081",
				PollTimeout:         20 * time.Second,
				DatabaseDSN:         "db",
				StorageBackend:      "s3",
				StorageDir:          "/var/files",
				S3RootUser:          "user",
				S3RootPassword:      "password",
				S3Bucket:            "bucket",
				S3Region:            "us-west-1",
				S3BaseEndpoint:      "http://endpoint",
				SessionIdleTimeout:  15 * time.Minute,
			}},
		{name: "Test2 unset flags keep existing values", args: []string{"cmd", "-t", "999:zzz"},
			expectPanic: false,
			expected: &Config{
				TelegramToken: "999:zzz",
			}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.PanicOnError)

			origArgs := os.Args
			t.Cleanup(func() { os.Args = origArgs })
			os.Args = tt.args

			config := &Config{}

			if !tt.expectPanic {

				require.NotPanics(t, func() { parseFlags(config) })
				assert.Empty(t, cmp.Diff(config, tt.expected))
			} else {
				require.Panics(t, func() { parseFlags(config) })
			}
		})
	}
}
