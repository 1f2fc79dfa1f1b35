// Copyright (C) 2019 Storj Labs, Inc.
// See LICENSE for copying information.

package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Config holds the routing node's command-line flag values.
type Config struct {
	Identity struct {
		KeyPath string
	}
	Bind struct {
		Address string
	}
	Bootstrap struct {
		Contacts []string
		Seed     bool
	}
	Routing struct {
		GroupSize  int
		QuorumSize int
	}
	Log struct {
		Level string
	}
}

var cfg Config

// RootCmd is the routingnode CLI's base command.
var RootCmd = &cobra.Command{
	Use:   "routingnode",
	Short: "Run a structured overlay routing node",
	Args:  cobra.OnlyValidArgs,
}

func init() {
	RootCmd.PersistentFlags().StringVar(&cfg.Identity.KeyPath, "identity.key-path", "", "path to the node's Ed25519 key pair")
	RootCmd.PersistentFlags().StringVar(&cfg.Bind.Address, "bind.address", ":7777", "local accept address")
	RootCmd.PersistentFlags().StringSliceVar(&cfg.Bootstrap.Contacts, "bootstrap.contacts", nil, "comma separated bootstrap contact endpoints")
	RootCmd.PersistentFlags().BoolVar(&cfg.Bootstrap.Seed, "bootstrap.seed", false, "promote this node as the network's first seed node")
	RootCmd.PersistentFlags().IntVar(&cfg.Routing.GroupSize, "routing.group-size", 32, "GROUP_SIZE: peers per close group")
	RootCmd.PersistentFlags().IntVar(&cfg.Routing.QuorumSize, "routing.quorum-size", 5, "QUORUM_SIZE: nominal group-message quorum")
	RootCmd.PersistentFlags().StringVar(&cfg.Log.Level, "log.level", "info", "zap log level")

	_ = viper.BindPFlags(RootCmd.PersistentFlags())

	viper.SetEnvPrefix("ROUTINGNODE")
	viper.AutomaticEnv()

	RootCmd.AddCommand(runCmd)
}
