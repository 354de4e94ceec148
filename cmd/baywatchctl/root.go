package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Harsh-BH/baywatch/internal/client"
)

type globalOptions struct {
	cfgFile    string
	jsonOutput bool
	v          *viper.Viper
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{v: viper.New()}

	cmd := &cobra.Command{
		Use:           "baywatchctl",
		Short:         "Manage repair jobs and bay cameras",
		Long:          `Create and complete jobs, release cameras, issue customer viewing links and manage camera credentials.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.initConfig()
		},
	}

	cmd.PersistentFlags().StringVar(&opts.cfgFile, "config", "", "config file (default is $HOME/.baywatchctl.yaml)")
	cmd.PersistentFlags().BoolVar(&opts.jsonOutput, "json", false, "Output results as JSON")
	cmd.PersistentFlags().String("url", "http://localhost:8080", "Baywatch API base URL")
	cmd.PersistentFlags().String("token", "", "Staff API token")
	cmd.PersistentFlags().Duration("timeout", 30*time.Second, "Request timeout")
	_ = opts.v.BindPFlag("url", cmd.PersistentFlags().Lookup("url"))
	_ = opts.v.BindPFlag("token", cmd.PersistentFlags().Lookup("token"))
	_ = opts.v.BindPFlag("timeout", cmd.PersistentFlags().Lookup("timeout"))

	cmd.AddCommand(
		newJobsCmd(opts),
		newCamerasCmd(opts),
		newHealthCmd(opts),
		newKeygenCmd(),
		newSealCmd(opts),
	)
	return cmd
}

// initConfig reads the config file and BAYWATCH_* environment variables.
// Flags set on the command line win.
func (o *globalOptions) initConfig() error {
	o.v.SetEnvPrefix("baywatch")
	o.v.AutomaticEnv()

	if o.cfgFile != "" {
		o.v.SetConfigFile(o.cfgFile)
		if err := o.v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config: %w", err)
		}
		return nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}
	o.v.AddConfigPath(home)
	o.v.SetConfigType("yaml")
	o.v.SetConfigName(".baywatchctl")
	if err := o.v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("read config: %w", err)
		}
	}
	return nil
}

func (o *globalOptions) client() *client.Client {
	return client.New(client.Config{
		BaseURL: o.v.GetString("url"),
		Token:   o.v.GetString("token"),
		Timeout: o.v.GetDuration("timeout"),
	})
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newHealthCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Show server health",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := opts.client().Health(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), body)
			return nil
		},
	}
}
