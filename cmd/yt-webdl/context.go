package main

import (
	"net"
	"strings"
	"sync"

	"github.com/ytget/yt-webdl/internal/client"
	"github.com/ytget/yt-webdl/internal/config"
)

// dotEnvFiles are loaded before anything reads the environment
var dotEnvFiles = []string{".env"}

type commandContext struct {
	serverFlag *string
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(serverFlag, configFlag *string) *commandContext {
	return &commandContext{
		serverFlag: serverFlag,
		configFlag: configFlag,
	}
}

func (c *commandContext) loadDotEnv() error {
	return config.LoadDotEnv(dotEnvFiles...)
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// serverAddress prefers --server, then the configured bind address
func (c *commandContext) serverAddress() (string, error) {
	if c.serverFlag != nil {
		if addr := strings.TrimSpace(*c.serverFlag); addr != "" {
			return addr, nil
		}
	}
	cfg, err := c.ensureConfig()
	if err != nil {
		return "", err
	}
	return dialAddress(cfg.Server.Bind), nil
}

func (c *commandContext) newClient() (*client.Client, error) {
	addr, err := c.serverAddress()
	if err != nil {
		return nil, err
	}
	return client.New(addr, nil)
}

// dialAddress turns a listen address into one a client can connect to
func dialAddress(bind string) string {
	host, port, err := net.SplitHostPort(bind)
	if err != nil {
		return bind
	}
	switch host {
	case "", "0.0.0.0", "::":
		host = "127.0.0.1"
	}
	return net.JoinHostPort(host, port)
}
