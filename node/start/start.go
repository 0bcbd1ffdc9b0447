/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package start

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/hyperledger-labs/obligation-smart-client/pkg/node"
	"github.com/hyperledger-labs/obligation-smart-client/platform/common/services/logging"
	"github.com/hyperledger-labs/obligation-smart-client/platform/iou/api"
	"github.com/hyperledger-labs/obligation-smart-client/platform/view/services/config"
	"github.com/hyperledger-labs/obligation-smart-client/platform/view/services/metrics/prometheus"
	"github.com/hyperledger-labs/obligation-smart-client/platform/view/services/server/web"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

const (
	startCmdDesc = "Start the parties, the notary and the web api."
	// SighupIgnoreEnv keeps the node running on SIGHUP when set to true
	SighupIgnoreEnv = "IOU_SIGHUP_IGNORE"
)

var logger = logging.MustGetLogger("osc.node.start")

// Cmd returns the cobra command for Start
func Cmd() *cobra.Command {
	var confPath string
	cmd := &cobra.Command{
		Use:   "start",
		Short: startCmdDesc,
		Long:  startCmdDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			if len(confPath) == 0 {
				confPath = os.Getenv(config.PathEnv)
			}
			if len(confPath) == 0 {
				confPath = "./"
			}
			return serve(confPath)
		},
	}
	cmd.Flags().StringVarP(&confPath, "config", "c", "", fmt.Sprintf("folder or file of the configuration, defaults to $%s or the working directory", config.PathEnv))
	return cmd
}

// Service is a running part of the node
type Service interface {
	Stop() error
}

// Run builds and starts the network and the web server described by cp.
// Stop the server before the network.
func Run(ctx context.Context, cp *config.Provider) (*node.Network, web.WebServer, error) {
	cfg, err := node.ConfigFrom(cp)
	if err != nil {
		return nil, nil, errors.WithMessage(err, "invalid configuration")
	}
	network, err := node.NewNetwork(cfg)
	if err != nil {
		return nil, nil, errors.WithMessage(err, "failed creating the network")
	}
	network.Start(ctx)

	server, h := web.New(cp)
	api.Install(h, func(name string) (api.Node, bool) {
		n, ok := network.Node(name)
		if !ok {
			return nil, false
		}
		return n, true
	})
	server.RegisterHandler("/metrics", prometheus.Handler(network.Metrics()))
	server.RegisterHandler("/logspec", logging.NewSpecHandler())
	if err := server.Start(); err != nil {
		if stopErr := network.Stop(); stopErr != nil {
			logger.Errorf("failed stopping the network: %s", stopErr)
		}
		return nil, nil, err
	}
	return network, server, nil
}

func serve(confPath string) error {
	cp, err := config.NewProvider(confPath)
	if err != nil {
		return errors.WithMessagef(err, "failed loading configuration from [%s]", confPath)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	network, server, err := Run(ctx, cp)
	if err != nil {
		return err
	}
	logger.Infof("started parties %v, web api on [%s]", network.Names(), server.Addr())

	sighupIgnore := false
	if v := os.Getenv(SighupIgnoreEnv); len(v) != 0 {
		if sighupIgnore, err = strconv.ParseBool(v); err != nil {
			logger.Warnf("invalid value [%s] for %s: %s", v, SighupIgnoreEnv, err)
		}
	}

	done := make(chan os.Signal, 1)
	exit := func(sig os.Signal) func() {
		return func() {
			logger.Infof("Received %s, exiting...", sig)
			done <- sig
		}
	}
	go handleSignals(addPlatformSignals(map[os.Signal]func(){
		syscall.SIGINT:  exit(syscall.SIGINT),
		syscall.SIGTERM: exit(syscall.SIGTERM),
		syscall.SIGHUP: func() {
			if sighupIgnore {
				logger.Infof("Received SIGHUP, but ignoring it")
				return
			}
			exit(syscall.SIGHUP)()
		},
	}))
	<-done

	return shutdown(server, network)
}

// shutdown stops accepting requests before stopping the parties
func shutdown(services ...Service) error {
	var firstErr error
	for _, s := range services {
		if err := s.Stop(); err != nil {
			logger.Errorf("failed stopping: %s", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func handleSignals(handlers map[os.Signal]func()) {
	var signals []os.Signal
	for sig := range handlers {
		signals = append(signals, sig)
	}

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, signals...)

	for sig := range signalChan {
		logger.Debugf("Received signal: %d (%s)", sig, sig)
		handlers[sig]()
	}
}
