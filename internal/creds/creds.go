package creds

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
)

const (
	apiKeyEnv    = "BINANCE_API_KEY"
	apiSecretEnv = "BINANCE_API_SECRET"
)

// Credentials is a resolved Binance API key pair.
type Credentials struct {
	ApiKey    string
	SecretKey string
}

// Resolve produces exchange credentials before any client is built:
// environment variables first, interactive prompt as the fallback.
// Nothing outside this step ever prompts.
func Resolve(logger *zap.Logger) (Credentials, error) {
	return resolve(logger, os.Stdin, os.Stdout)
}

func resolve(logger *zap.Logger, in io.Reader, out io.Writer) (Credentials, error) {
	apiKey := os.Getenv(apiKeyEnv)
	secretKey := os.Getenv(apiSecretEnv)

	if apiKey == "" || secretKey == "" {
		logger.Warn("Add your credentials to the BINANCE_API_KEY and BINANCE_API_SECRET environment variables to prevent entering them on every execution")
	}

	reader := bufio.NewReader(in)

	var err error
	if apiKey == "" {
		if apiKey, err = prompt(reader, out, "Enter your Binance API key: "); err != nil {
			return Credentials{}, err
		}
	}
	if secretKey == "" {
		if secretKey, err = prompt(reader, out, "Enter your Binance API secret: "); err != nil {
			return Credentials{}, err
		}
	}

	return Credentials{ApiKey: apiKey, SecretKey: secretKey}, nil
}

func prompt(reader *bufio.Reader, out io.Writer, label string) (string, error) {
	fmt.Fprint(out, label)
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("could not read credential from input: %w", err)
	}
	value := strings.TrimSpace(line)
	if value == "" {
		return "", fmt.Errorf("empty credential given")
	}
	return value, nil
}
