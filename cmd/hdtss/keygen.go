package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/google/uuid"
	"github.com/mpcwallet/hdtss/pkg/hd"
	"github.com/mpcwallet/hdtss/pkg/paillier"
	"github.com/mpcwallet/hdtss/pkg/party"
	"github.com/mpcwallet/hdtss/pkg/pool"
	"github.com/mpcwallet/hdtss/pkg/protocol"
	"github.com/mpcwallet/hdtss/protocols/gg20"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newKeygenCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Run a local key generation and write one share file per party",
		Long: `Run the threshold key generation between --parties local parties,
any --threshold + 1 of which can later sign.

Each party's share is written with the chain code of the group key to
<out-dir>/share-<id>.cbor.

Examples:
  # 2-of-3 wallet
  hdtss keygen --threshold 1 --parties 3 --out-dir ./shares`,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newLogger(cmd.ErrOrStderr(), v.GetBool("verbose"))
			params := gg20.ThresholdParams{
				Threshold:  v.GetInt("threshold"),
				ShareCount: v.GetInt("parties"),
			}
			sessionID := v.GetString("session-id")
			if sessionID == "" {
				sessionID = uuid.New().String()
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			pl := pool.NewPool(v.GetInt("workers"))
			defer pl.TearDown()

			log.Info().Int("threshold", params.Threshold).Int("parties", params.ShareCount).
				Str("session", sessionID).Msg("starting key generation")
			shares, err := generateShares(ctx, log, params, sessionID, pl, nil)
			if err != nil {
				return err
			}

			outDir := v.GetString("out-dir")
			if err = os.MkdirAll(outDir, 0o700); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
			ids := sortedIDs(shares)
			for _, id := range ids {
				path, err := writeShare(outDir, shares[id])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "party %s: %s\n", id, path)
			}
			return printPublic(cmd.OutOrStdout(), shares[ids[0]], &chaincfg.MainNetParams)
		},
	}

	cmd.Flags().Int("threshold", 1, "maximum number of corrupted parties, threshold + 1 parties can sign")
	cmd.Flags().Int("parties", 3, "number of parties")
	cmd.Flags().String("out-dir", ".", "directory for the share files")
	cmd.Flags().String("session-id", "", "session identifier (default: random UUID)")
	cmd.Flags().Int("workers", 0, "number of goroutines for prime generation (default: number of CPUs)")
	return cmd
}

// generateShares runs the key generation for all parties of params.
// keys optionally provides Paillier keys per party, which are otherwise generated.
func generateShares(ctx context.Context, log zerolog.Logger, params gg20.ThresholdParams, sessionID string,
	pl *pool.Pool, keys map[party.ID]*paillier.SecretKey) (map[party.ID]*hd.RawShare, error) {
	shares, err := gg20.LocalKeygen(ctx, params, []byte(sessionID), pl, keys, protocol.WithLogger(log))
	if err != nil {
		return nil, fmt.Errorf("key generation failed: %w", err)
	}

	raws := make(map[party.ID]*hd.RawShare, len(shares))
	for id, share := range shares {
		raw, err := hd.NewRawShare(share)
		if err != nil {
			return nil, fmt.Errorf("party %s: %w", id, err)
		}
		raws[id] = raw
	}
	return raws, nil
}

func sortedIDs(shares map[party.ID]*hd.RawShare) party.IDSlice {
	ids := make([]party.ID, 0, len(shares))
	for id := range shares {
		ids = append(ids, id)
	}
	return party.NewIDSlice(ids)
}
