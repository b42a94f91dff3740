// Package cli implements the mediaplayer command line.
package cli

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/llehouerou/mediaplayer/internal/config"
	"github.com/llehouerou/mediaplayer/internal/errmsg"
	"github.com/llehouerou/mediaplayer/internal/logging"
)

var (
	cfgFile  string
	logLevel string

	cfg       *config.Config
	log       = zerolog.Nop()
	logCloser io.Closer
)

var rootCmd = &cobra.Command{
	Use:   "mediaplayer",
	Short: "Play audio and video sources from the terminal",
	Long: `mediaplayer plays a local file or URL through mpv or an in-process
audio backend, showing its playback state in the terminal.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := initConfig(); err != nil {
			return err
		}
		return initLogging()
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		closeLogging()
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default: $XDG_CONFIG_HOME/mediaplayer/config.toml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override the configured log level")
}

func initConfig() error {
	var err error
	if cfgFile != "" {
		cfg, err = config.LoadFile(cfgFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return errmsg.Wrap(errmsg.OpConfigLoad, err)
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return errmsg.Wrap(errmsg.OpConfigLoad, err)
	}
	return nil
}

func initLogging() error {
	l, closer, err := logging.New(cfg.GetLogConfig())
	if err != nil {
		return errmsg.Wrap(errmsg.OpLogOpen, err)
	}
	log = l
	logCloser = closer
	return nil
}

func closeLogging() {
	if logCloser != nil {
		_ = logCloser.Close()
		logCloser = nil
	}
	log = zerolog.Nop()
}

// Execute runs the root command.
func Execute() {
	err := rootCmd.Execute()
	closeLogging()
	if err != nil {
		os.Exit(1)
	}
}
