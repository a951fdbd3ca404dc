package main

import (
	"encoding/hex"
	"fmt"
	"io"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/mpcwallet/hdtss/internal/bip32"
	"github.com/mpcwallet/hdtss/pkg/hd"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newInfoCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info",
		Short: "Print the public data of a share file",
		Long: `Print the public data of a share file: the party, the threshold,
the group public key and its extended public key.

Examples:
  hdtss info --share ./shares/share-1.cbor --net testnet3`,
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readShare(v.GetString("share"))
			if err != nil {
				return err
			}
			net, err := networkFromName(v.GetString("net"))
			if err != nil {
				return err
			}
			return printPublic(cmd.OutOrStdout(), raw, net)
		},
	}
	cmd.Flags().StringP("share", "s", "", "path to the share file")
	cmd.Flags().String("net", "mainnet", "network for the extended public key (mainnet, testnet3, regtest, signet)")
	return cmd
}

func printPublic(w io.Writer, raw *hd.RawShare, net *chaincfg.Params) error {
	share := raw.Share
	root, err := hd.Derive(share.PublicKey, raw.ChainCode, bip32.Path{})
	if err != nil {
		return err
	}
	xpub, err := root.ExtendedPublicKey(net)
	if err != nil {
		return err
	}
	publicKey, err := share.PublicKey.MarshalBinary()
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "party:      %s\n", share.ID)
	fmt.Fprintf(w, "threshold:  %d of %d\n", share.Threshold+1, len(share.Public))
	fmt.Fprintf(w, "parties:    %v\n", share.PartyIDs())
	fmt.Fprintf(w, "public key: %s\n", hex.EncodeToString(publicKey))
	fmt.Fprintf(w, "chain code: %s\n", hex.EncodeToString(raw.ChainCode[:]))
	fmt.Fprintf(w, "xpub:       %s\n", xpub)
	return nil
}
