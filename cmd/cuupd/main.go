// Copyright Louis Royer and the NextMN contributors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/nextmn/cu-up-bearers/config"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:     "cuupd",
	Short:   "CU-UP bearer context daemon",
	Long:    "cuupd carries the user plane of the bearer contexts of a CU-UP between N3 and F1-U.",
	Example: "cuupd -c config/cuup.yaml",
	RunE:    run,
}

func init() {
	rootCmd.Flags().StringP("config", "c", "config/cuup.yaml", "config file path")
	if err := rootCmd.MarkFlagRequired("config"); err != nil {
		panic(err)
	}
}

func run(cmd *cobra.Command, args []string) error {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return err
	}
	conf, err := config.ParseConf(path)
	if err != nil {
		return err
	}
	logrus.SetLevel(conf.LogLevel())

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	n, err := newNode(conf)
	if err != nil {
		return err
	}
	if err := n.Start(ctx); err != nil {
		n.Stop()
		return err
	}
	logrus.Info("CU-UP started")
	<-ctx.Done()
	logrus.Info("Shutting down")
	n.Stop()
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logrus.WithError(err).Fatal("cuupd failed")
	}
}
