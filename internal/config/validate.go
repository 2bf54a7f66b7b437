package config

import (
	"errors"
	"fmt"
)

var ffmpegLogLevels = map[string]struct{}{
	"quiet": {}, "panic": {}, "fatal": {}, "error": {}, "warning": {},
	"info": {}, "verbose": {}, "debug": {}, "trace": {},
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateFFmpeg(); err != nil {
		return err
	}
	if err := c.validateStoryboard(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateFFmpeg() error {
	if c.FFmpeg.Binary == "" {
		return errors.New("ffmpeg.binary must be set")
	}
	if _, ok := ffmpegLogLevels[c.FFmpeg.LogLevel]; !ok {
		return fmt.Errorf("ffmpeg.loglevel: unsupported value %q", c.FFmpeg.LogLevel)
	}
	return nil
}

func (c *Config) validateStoryboard() error {
	if c.Storyboard.JPEGQuality < 1 || c.Storyboard.JPEGQuality > 100 {
		return errors.New("storyboard.jpeg_quality must be between 1 and 100")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
}
