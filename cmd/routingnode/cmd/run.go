// Copyright (C) 2019 Storj Labs, Inc.
// See LICENSE for copying information.

package cmd

import (
	"context"
	"crypto/ed25519"
	"encoding/pem"
	"io/ioutil"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/groupnet/routing/internal/table"
	"github.com/groupnet/routing/pkg/identity"
	"github.com/groupnet/routing/pkg/routing"
	"github.com/groupnet/routing/pkg/routing/core"
	"github.com/groupnet/routing/pkg/transport"
	"github.com/groupnet/routing/pkg/wire"
)

// NewTransport constructs the transport.Service this node drives. pkg/transport
// is, by design, interface-only (spec §1/§6: "transport service ... external
// collaborator with named interfaces only"), so the concrete wire-level
// implementation is an injection point rather than a dependency of this
// repository. A deployment wires one in by setting this before Execute, e.g.
// from an init() in its own main package.
var NewTransport func(log *zap.Logger, bindAddress string) (transport.Service, error)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the routing node and block until terminated",
	RunE:  run,
}

func run(rootCmd *cobra.Command, args []string) error {
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(logLevel(cfg.Log.Level))
	log, err := zcfg.Build()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	if NewTransport == nil {
		return Error.New("no transport.Service wired in: set cmd.NewTransport before Execute")
	}

	id, err := loadOrGenerateIdentity(cfg.Identity.KeyPath)
	if err != nil {
		return Error.Wrap(err)
	}

	svc, err := NewTransport(log.Named("transport"), cfg.Bind.Address)
	if err != nil {
		return Error.Wrap(err)
	}

	actions := make(chan routing.Action, 64)
	transportEvents := make(chan transport.Event, 256)
	events := make(chan routing.Event, 64)

	tableFactory := func(self routing.NodeInfo) routing.RoutingTable {
		return table.New(log.Named("table"), self, cfg.Routing.GroupSize, cfg.Routing.GroupSize)
	}

	c := core.New(
		log.Named("core"),
		id,
		svc,
		wire.NewGobCodec(),
		tableFactory,
		core.Config{
			GroupSize:         cfg.Routing.GroupSize,
			QuorumSize:        cfg.Routing.QuorumSize,
			BootstrapContacts: cfg.Bootstrap.Contacts,
		},
		actions,
		transportEvents,
		events,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go logEvents(log, events)

	if cfg.Bootstrap.Seed {
		c.PromoteSeed()
	}
	if err := c.Start(ctx); err != nil {
		return Error.Wrap(err)
	}

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt)
	go func() {
		<-sigs
		actions <- routing.Action{Kind: routing.ActionTerminate}
	}()

	return c.Run(ctx)
}

func logLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zap.DebugLevel
	case "warn":
		return zap.WarnLevel
	case "error":
		return zap.ErrorLevel
	default:
		return zap.InfoLevel
	}
}

func logEvents(log *zap.Logger, events <-chan routing.Event) {
	for ev := range events {
		log.Info("event", zap.Int("kind", int(ev.Kind)))
	}
}

func loadOrGenerateIdentity(path string) (*identity.Identity, error) {
	if path == "" {
		return identity.New()
	}
	raw, err := ioutil.ReadFile(path)
	if os.IsNotExist(err) {
		id, genErr := identity.New()
		if genErr != nil {
			return nil, genErr
		}
		return id, writePrivateKey(path, id)
	}
	if err != nil {
		return nil, err
	}
	block, _ := pem.Decode(raw)
	if block == nil || len(block.Bytes) != ed25519.PrivateKeySize {
		return nil, Error.New("%s does not contain an Ed25519 private key", path)
	}
	return identity.FromPrivateKey(ed25519.PrivateKey(block.Bytes))
}

func writePrivateKey(path string, id *identity.Identity) error {
	block := &pem.Block{Type: "ED25519 PRIVATE KEY", Bytes: id.PrivateKeyBytes()}
	return ioutil.WriteFile(path, pem.EncodeToMemory(block), 0600)
}
