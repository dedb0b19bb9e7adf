package main

import (
	"log/slog"
	"strings"
	"sync"

	"fotoprotokoll/internal/config"
	"fotoprotokoll/internal/logging"
	"fotoprotokoll/internal/memo"
	"fotoprotokoll/internal/stagecache"
)

type commandContext struct {
	configFlag   *string
	logLevelFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag, logLevelFlag *string) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		logLevelFlag: logLevelFlag,
	}
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

func (c *commandContext) buildLogger(cfg *config.Config) (*slog.Logger, error) {
	level := cfg.Logging.Level
	if c.logLevelFlag != nil && strings.TrimSpace(*c.logLevelFlag) != "" {
		level = strings.TrimSpace(*c.logLevelFlag)
	}
	return logging.NewToFile(level, cfg.Logging.Format, cfg.LogDir())
}

// openStores wires the cache manifest and the memo database for commands
// that touch pipeline state. The caller owns closing the memo store.
func (c *commandContext) openStores(cfg *config.Config, logger *slog.Logger) (*stagecache.Store, *memo.Store, error) {
	memoStore, err := memo.Open(cfg.MemoDBPath(), logger)
	if err != nil {
		return nil, nil, err
	}
	return stagecache.NewStore(cfg.StageManifestPath(), logger), memoStore, nil
}
