package main

import (
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"paperreel/internal/api"
	"paperreel/internal/config"
)

type commandContext struct {
	daemonFlag *string
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(daemonFlag, configFlag *string) *commandContext {
	return &commandContext{daemonFlag: daemonFlag, configFlag: configFlag}
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
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// client builds an API client for the configured daemon address. The
// --daemon flag overrides the address from the config file.
func (c *commandContext) client() (*api.Client, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	address := strings.TrimSpace(cfg.Paths.APIBind)
	token := cfg.Paths.APIToken
	if c.daemonFlag != nil && strings.TrimSpace(*c.daemonFlag) != "" {
		address = strings.TrimSpace(*c.daemonFlag)
	}
	if !strings.HasPrefix(address, "http://") && !strings.HasPrefix(address, "https://") {
		address = "http://" + address
	}
	return api.NewClient(address, token), nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
