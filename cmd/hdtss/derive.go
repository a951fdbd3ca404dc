package main

import (
	"encoding/hex"
	"fmt"

	"github.com/mpcwallet/hdtss/pkg/hd"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newDeriveCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "derive",
		Short: "Derive the share of a BIP44 account key",
		Long: `Derive the share of the account key m/44/<coin>/<account>/<usage>
from a share file, and print the child public key and its extended public key.

Every party derives the same public key from its own share, without interaction.
All levels are non-hardened.

Examples:
  # first receive account for bitcoin
  hdtss derive --share ./shares/share-1.cbor --coin 0 --account 0 --usage receive

  # address 5 of the change chain, testnet
  hdtss derive --share ./shares/share-2.cbor --usage change --address 5 --net testnet3`,
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readShare(v.GetString("share"))
			if err != nil {
				return err
			}
			net, err := networkFromName(v.GetString("net"))
			if err != nil {
				return err
			}
			usage, err := hd.ParseUsage(v.GetString("usage"))
			if err != nil {
				return err
			}

			account, err := hd.NewAccount(raw, v.GetUint32("coin"), v.GetUint32("account"), usage)
			if err != nil {
				return err
			}
			d := account.Derived
			if address := v.GetInt64("address"); address >= 0 {
				if _, d, err = account.Address(uint32(address)); err != nil {
					return err
				}
			}

			xpub, err := d.ExtendedPublicKey(net)
			if err != nil {
				return err
			}
			publicKey, err := d.PublicKey.MarshalBinary()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "party:      %s\n", raw.Share.ID)
			fmt.Fprintf(out, "path:       %s\n", d.Path)
			fmt.Fprintf(out, "public key: %s\n", hex.EncodeToString(publicKey))
			fmt.Fprintf(out, "chain code: %s\n", hex.EncodeToString(d.ChainCode[:]))
			fmt.Fprintf(out, "xpub:       %s\n", xpub)
			return nil
		},
	}
	cmd.Flags().StringP("share", "s", "", "path to the share file")
	cmd.Flags().Uint32("coin", 0, "BIP44 coin type")
	cmd.Flags().Uint32("account", 0, "BIP44 account index")
	cmd.Flags().String("usage", "receive", "receive or change")
	cmd.Flags().Int64("address", -1, "address index below the account (default: none)")
	cmd.Flags().String("net", "mainnet", "network for the extended public key (mainnet, testnet3, regtest, signet)")
	return cmd
}
