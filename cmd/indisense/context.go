package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"indisense/sentiment-gateway/internal/apiclient"
	"indisense/sentiment-gateway/internal/capture"
	"indisense/sentiment-gateway/internal/rpc"
)

const (
	keyServer  = "server"
	keyGRPC    = "grpc"
	keyToken   = "token"
	keyConfig  = "config"
	keyVerbose = "verbose"
	keyNoColor = "no-color"

	envPrefix = "INDISENSE"
)

// commandContext carries settings resolved from flags, INDISENSE_* variables
// and an optional config file, in that order of precedence.
type commandContext struct {
	v      *viper.Viper
	logger *logrus.Logger
}

func newCommandContext() *commandContext {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)
	return &commandContext{v: v, logger: logger}
}

func (c *commandContext) load(cmd *cobra.Command) error {
	if err := c.v.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("bind flags: %w", err)
	}
	if err := c.readConfig(); err != nil {
		return err
	}

	c.logger.SetOutput(cmd.ErrOrStderr())
	c.logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	if c.v.GetBool(keyVerbose) {
		c.logger.SetLevel(logrus.DebugLevel)
	}
	return nil
}

func (c *commandContext) readConfig() error {
	if path := strings.TrimSpace(c.v.GetString(keyConfig)); path != "" {
		c.v.SetConfigFile(path)
		if err := c.v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", path, err)
		}
		return nil
	}

	dir, err := os.UserConfigDir()
	if err != nil {
		return nil
	}
	c.v.SetConfigName("indisense")
	c.v.AddConfigPath(filepath.Join(dir, "indisense"))
	if err := c.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func (c *commandContext) apiClient() *apiclient.Client {
	return apiclient.New(c.v.GetString(keyServer), apiclient.WithToken(c.v.GetString(keyToken)))
}

// transport picks gRPC when an address is configured and HTTP otherwise.
// The returned func releases the connection.
func (c *commandContext) transport() (capture.Transport, func(), error) {
	addr := strings.TrimSpace(c.v.GetString(keyGRPC))
	if addr == "" {
		return c.apiClient(), func() {}, nil
	}
	conn, err := grpc.NewClient(addr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.MaxCallSendMsgSize(rpc.MaxMessageSize)),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to %s: %w", addr, err)
	}
	c.logger.WithField("address", addr).Debug("Using gRPC transport")
	return rpc.NewClient(conn), func() { _ = conn.Close() }, nil
}

func (c *commandContext) colorize(cmd *cobra.Command) bool {
	if c.v.GetBool(keyNoColor) {
		return false
	}
	return shouldColorize(cmd.OutOrStdout())
}
