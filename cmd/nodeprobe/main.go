// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Command nodeprobe dials a blockchain node's websocket endpoint,
// performs the protocol handshake, and prints the node's metadata.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/luxfi/nodeprobe"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const defaultGenesisHash = "5972ecbfbc42507482dbcb0a2892bcd70161fd9acdfdf7e6455ab39bac3dfb83"

var flags struct {
	nodeAddress string
	genesisHash string
	name        string
	chain       string
	timeout     time.Duration
	verbose     bool
}

var rootCmd = &cobra.Command{
	Use:   "nodeprobe",
	Short: "Probe a blockchain node over its websocket endpoint",
	Long: `nodeprobe establishes a session with a blockchain node, verifies
protocol and chain compatibility with a binary handshake, then queries
the node's name, chain and version over JSON-RPC.`,
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	rootCmd.Flags().StringVar(&flags.nodeAddress, "node-address", "ws://127.0.0.1:9944", "websocket endpoint of the node")
	rootCmd.Flags().StringVar(&flags.genesisHash, "genesis-hash", defaultGenesisHash, "hex-encoded genesis hash of the target chain")
	rootCmd.Flags().StringVar(&flags.name, "name", "my-node", "node name announced in the handshake")
	rootCmd.Flags().StringVar(&flags.chain, "chain", "my-chain", "chain name announced in the handshake")
	rootCmd.Flags().DurationVar(&flags.timeout, "timeout", 30*time.Second, "overall deadline for the probe (0 disables)")
	rootCmd.Flags().BoolVarP(&flags.verbose, "verbose", "v", false, "enable debug logging")
}

func run(cmd *cobra.Command, _ []string) error {
	log, err := newLogger(flags.verbose)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	// Configuration is validated before any network activity.
	genesisHash, err := nodeprobe.ParseGenesisHash(flags.genesisHash)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if flags.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, flags.timeout)
		defer cancel()
	}

	log.Info("connecting to node", zap.String("address", flags.nodeAddress))
	sess, err := nodeprobe.Dial(ctx, flags.nodeAddress, nodeprobe.WithLogger(log))
	if err != nil {
		return err
	}
	defer sess.Close()

	peer, err := sess.Handshake(ctx, nodeprobe.Identity{
		Name:        flags.name,
		Chain:       flags.chain,
		GenesisHash: genesisHash,
	})
	if err != nil {
		return fmt.Errorf("handshake failed: %w", err)
	}
	if peer.GenesisHash != genesisHash {
		log.Warn("peer genesis hash differs from local chain",
			zap.String("peer_chain", peer.Chain))
	}
	log.Info("handshake completed")

	results, err := sess.QueryNodeInfo(ctx)
	if err != nil {
		return fmt.Errorf("querying node information: %w", err)
	}
	for _, r := range results {
		if r.Err != nil {
			log.Error("query failed",
				zap.Uint64("id", r.ID),
				zap.String("method", r.Method),
				zap.Error(r.Err))
			continue
		}
		fmt.Printf("%s: %s\n", r.Method, r.Value)
	}
	log.Info("node information queried")
	return nil
}

func newLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	if !verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	return cfg.Build()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
