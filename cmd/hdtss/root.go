package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/mpcwallet/hdtss/pkg/hd"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const envPrefix = "HDTSS"

// newRootCmd builds the command tree. Every flag can also be set through the environment,
// as HDTSS_<FLAG> with dashes replaced by underscores, or through the config file.
func newRootCmd() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	root := &cobra.Command{
		Use:   "hdtss",
		Short: "Threshold ECDSA key generation with BIP32 derivation",
		Long: `hdtss runs the threshold ECDSA key generation between local parties,
and derives non-hardened BIP44 account keys from the resulting shares.

Use 'hdtss keygen' to generate one share file per party.
Use 'hdtss derive' to derive an account key from a share.
Use 'hdtss info' to print the public data of a share.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// flags are bound for the command being run only, since subcommands reuse names
			if err := v.BindPFlags(cmd.Flags()); err != nil {
				return fmt.Errorf("failed to bind flags: %w", err)
			}
			if cfgFile := v.GetString("config"); cfgFile != "" {
				v.SetConfigFile(cfgFile)
				if err := v.ReadInConfig(); err != nil {
					return fmt.Errorf("failed to read config file: %w", err)
				}
			}
			return nil
		},
	}

	root.PersistentFlags().String("config", "", "config file (yaml, json or toml)")
	root.PersistentFlags().BoolP("verbose", "v", false, "log protocol progress")

	root.AddCommand(newKeygenCmd(v))
	root.AddCommand(newDeriveCmd(v))
	root.AddCommand(newInfoCmd(v))
	return root
}

func newLogger(w io.Writer, verbose bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: w}).Level(level).With().Timestamp().Logger()
}

var networks = map[string]*chaincfg.Params{
	"mainnet":  &chaincfg.MainNetParams,
	"testnet3": &chaincfg.TestNet3Params,
	"regtest":  &chaincfg.RegressionNetParams,
	"signet":   &chaincfg.SigNetParams,
}

func networkFromName(name string) (*chaincfg.Params, error) {
	net, ok := networks[name]
	if !ok {
		return nil, fmt.Errorf("unknown network %q", name)
	}
	return net, nil
}

func readShare(path string) (*hd.RawShare, error) {
	if path == "" {
		return nil, errors.New("no share file given")
	}
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read share file: %w", err)
	}
	raw := new(hd.RawShare)
	if err = raw.UnmarshalBinary(data); err != nil {
		return nil, fmt.Errorf("failed to decode share file %s: %w", path, err)
	}
	return raw, nil
}

func writeShare(dir string, raw *hd.RawShare) (string, error) {
	data, err := raw.MarshalBinary()
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, fmt.Sprintf("share-%s.cbor", raw.Share.ID))
	if err = os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("failed to write share file: %w", err)
	}
	return path, nil
}
