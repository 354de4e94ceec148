package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Harsh-BH/baywatch/internal/credentials"
)

func newKeygenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keygen",
		Short: "Generate a CREDENTIALS_KEY for sealing camera passwords",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := credentials.GenerateKey()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), key)
			return nil
		},
	}
}

// newSealCmd seals a password offline, for seeding cameras directly in the database.
func newSealCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "seal",
		Short:   "Seal a camera password read from stdin",
		Example: `  echo -n secret | BAYWATCH_CREDENTIALS_KEY=... baywatchctl seal`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			encoded := opts.v.GetString("credentials_key")
			if encoded == "" {
				return errors.New("no key: set --key or BAYWATCH_CREDENTIALS_KEY")
			}
			key, err := credentials.ParseKey(encoded)
			if err != nil {
				return err
			}
			sealer, err := credentials.NewSealer(key)
			if err != nil {
				return err
			}

			line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil && line == "" {
				return errors.New("no password on stdin")
			}
			sealed, err := sealer.Seal(strings.TrimRight(line, "\r\n"))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), sealed)
			return nil
		},
	}
	cmd.Flags().String("key", "", "Base64 credentials key")
	_ = opts.v.BindPFlag("credentials_key", cmd.Flags().Lookup("key"))
	return cmd
}
