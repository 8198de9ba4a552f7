package main

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"soundprint-mockup/app"
	"soundprint-mockup/config"
	"soundprint-mockup/logger"
)

type globalFlags struct {
	templateDir string
	assetRoot   string
	logMode     string
	quiet       bool
}

// commandContext lazily builds the pipeline once per invocation.
type commandContext struct {
	flags *globalFlags

	once   sync.Once
	cfg    *config.Config
	log    *logger.Logger
	app    *app.App
	appErr error
}

func newCommandContext(flags *globalFlags) *commandContext {
	return &commandContext{flags: flags}
}

func (c *commandContext) loadConfig() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if dir := strings.TrimSpace(c.flags.templateDir); dir != "" {
		cfg.TemplateSource = "file"
		cfg.TemplateDir = dir
		if strings.TrimSpace(c.flags.assetRoot) == "" {
			cfg.AssetRoot = dir
		}
	}
	if root := strings.TrimSpace(c.flags.assetRoot); root != "" {
		cfg.AssetRoot = root
	}
	if mode := strings.TrimSpace(c.flags.logMode); mode != "" {
		cfg.LogMode = mode
	}
	c.cfg = cfg
	return cfg, nil
}

func (c *commandContext) buildLogger() (*logger.Logger, error) {
	if c.log != nil {
		return c.log, nil
	}
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	if c.flags.quiet {
		log = &logger.Logger{SugaredLogger: log.SugaredLogger.Desugar().
			WithOptions(zap.IncreaseLevel(zap.WarnLevel)).Sugar()}
	}
	c.log = log
	return log, nil
}

func (c *commandContext) pipeline(ctx context.Context) (*app.App, error) {
	c.once.Do(func() {
		cfg, err := c.loadConfig()
		if err != nil {
			c.appErr = err
			return
		}
		log, err := c.buildLogger()
		if err != nil {
			c.appErr = err
			return
		}
		c.app, c.appErr = app.Build(ctx, cfg, log)
	})
	return c.app, c.appErr
}

func (c *commandContext) close() error {
	if c.log != nil {
		c.log.Sync()
	}
	if c.app == nil {
		return nil
	}
	return c.app.Close()
}
