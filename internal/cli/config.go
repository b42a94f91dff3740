package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/llehouerou/mediaplayer/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect configuration",
	Long:  `Commands for viewing the mediaplayer configuration.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Long:  `Display the configuration values in use, defaults included.`,
	Run: func(cmd *cobra.Command, args []string) {
		writeConfig(cmd.OutOrStdout(), cfg)
	},
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the configuration file",
	Long:  `Load and validate the configuration. Errors are reported by the root command.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), "Configuration is valid.")
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configValidateCmd)
	rootCmd.AddCommand(configCmd)
}

func writeConfig(out io.Writer, c *config.Config) {
	mc := c.GetMpvConfig()
	lc := c.GetLogConfig()
	nc := c.GetNotifications()

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	rows := [][2]string{
		{"backend", c.GetBackend()},
		{"player.clamp_offset_from_end", c.ClampOffset().String()},
		{"mpv.path", mc.Path},
		{"mpv.socket", mc.Socket},
		{"mpv.extra_args", strings.Join(mc.ExtraArgs, " ")},
		{"beep.status_interval", c.StatusInterval().String()},
		{"beep.volume", fmt.Sprintf("%g", c.Beep.Volume)},
		{"log.level", lc.Level},
		{"log.file", lc.File},
		{"journal.enabled", fmt.Sprintf("%t", c.JournalEnabled())},
		{"journal.path", c.JournalPath()},
		{"notifications.enabled", fmt.Sprintf("%t", nc.Enabled)},
		{"notifications.now_playing", fmt.Sprintf("%t", nc.NowPlaying)},
		{"notifications.errors", fmt.Sprintf("%t", nc.Errors)},
		{"notifications.timeout", nc.Timeout.String()},
	}
	for _, r := range rows {
		fmt.Fprintf(w, "%s\t%s\n", r[0], r[1])
	}
	_ = w.Flush()
}
