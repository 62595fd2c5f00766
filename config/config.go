// Copyright Louis Royer and the NextMN contributors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.
// SPDX-License-Identifier: MIT

package config

import (
	"bytes"
	"io"
	"net/netip"
	"os"
	"path/filepath"

	"github.com/nextmn/cu-up-bearers/cuup/api"
	"github.com/nextmn/cu-up-bearers/cuuputil"
	"github.com/nextmn/cu-up-bearers/gtpu"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

var ErrInvalidConfig = errors.New("invalid configuration")

type CUUPConfig struct {
	Logger    LoggerConfig     `yaml:"logger"`
	N3        N3Config         `yaml:"n3"`
	F1U       F1UConfig        `yaml:"f1u"`
	Demux     gtpu.DemuxConfig `yaml:"demux"`
	TEIDPools TEIDPoolsConfig  `yaml:"teid-pools"`
	// UE downlink AMBR, in bits per second
	UEDLAMBR uint64         `yaml:"ue-dl-ambr"`
	TestMode bool           `yaml:"test-mode"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	QoS      []QoSConfig    `yaml:"qos"`
	Bearers  []BearerConfig `yaml:"bearers"`
}

type LoggerConfig struct {
	Level string `yaml:"level"`
}

type N3Config struct {
	BindAddress string `yaml:"bind-address"`
	// Address advertised to the UPF, defaults to the bind address
	ExtAddress   string `yaml:"ext-address"`
	UPFPort      uint16 `yaml:"upf-port"`
	IgnoreUEAMBR bool   `yaml:"ignore-ue-ambr"`
	WarnOnDrop   bool   `yaml:"warn-on-drop"`
}

type F1UConfig struct {
	BindAddress string `yaml:"bind-address"`
	ExtAddress  string `yaml:"ext-address"`
	DUPort      uint16 `yaml:"du-port"`
}

type TEIDPoolsConfig struct {
	N3  uint32 `yaml:"n3"`
	F1U uint32 `yaml:"f1u"`
}

type MetricsConfig struct {
	// Empty to disable the metrics endpoint
	Address string `yaml:"address"`
}

type QoSConfig struct {
	FiveQI api.FiveQI    `yaml:"five-qi"`
	PDCP   PDCPQoSConfig `yaml:"pdcp"`
	F1U    F1UQoSConfig  `yaml:"f1u"`
}

type PDCPQoSConfig struct {
	MaxNofCryptoWorkers int  `yaml:"max-nof-crypto-workers"`
	WarnOnDrop          bool `yaml:"warn-on-drop"`
}

type F1UQoSConfig struct {
	WarnOnDrop bool   `yaml:"warn-on-drop"`
	QueueSize  uint32 `yaml:"queue-size"`
	BatchSize  uint32 `yaml:"batch-size"`
}

// BearerConfig is a bearer context set up at startup, without control plane.
type BearerConfig struct {
	UEIndex      api.UEIndex      `yaml:"ue-index"`
	PDUSessionID api.PDUSessionID `yaml:"pdu-session-id"`
	UPF          TunnelConfig     `yaml:"upf"`
	DRBID        api.DRBID        `yaml:"drb-id"`
	QoSFlowID    api.QoSFlowID    `yaml:"qfi"`
	FiveQI       api.FiveQI       `yaml:"five-qi"`
	DU           *TunnelConfig    `yaml:"du"`
}

type TunnelConfig struct {
	Address string   `yaml:"address"`
	TEID    api.TEID `yaml:"teid"`
}

func (t TunnelConfig) Info() (api.UPTransportLayerInfo, error) {
	addr, err := netip.ParseAddr(t.Address)
	if err != nil {
		return api.UPTransportLayerInfo{}, errors.Wrapf(ErrInvalidConfig, "tunnel address %q", t.Address)
	}
	return api.UPTransportLayerInfo{Address: addr, TEID: t.TEID}, nil
}

// Default returns a configuration with every optional field set.
func Default() *CUUPConfig {
	return &CUUPConfig{
		Logger: LoggerConfig{Level: "info"},
		N3: N3Config{
			UPFPort: cuuputil.GTPU_PORT,
		},
		F1U: F1UConfig{
			DUPort: cuuputil.GTPU_PORT,
		},
		Demux: gtpu.NewDemuxConfig(),
		TEIDPools: TEIDPoolsConfig{
			N3:  cuuputil.DEFAULT_N3_TEID_POOL_SIZE,
			F1U: cuuputil.DEFAULT_F1U_TEID_POOL_SIZE,
		},
	}
}

// ParseConf reads a YAML file on top of the default configuration.
func ParseConf(file string) (*CUUPConfig, error) {
	path, err := filepath.Abs(file)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	conf := Default()
	decoder := yaml.NewDecoder(bytes.NewReader(b))
	decoder.KnownFields(true)
	if err := decoder.Decode(conf); err != nil && !errors.Is(err, io.EOF) {
		return nil, errors.Wrapf(err, "could not parse %s", path)
	}
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return conf, nil
}

func (c *CUUPConfig) Validate() error {
	if _, err := logrus.ParseLevel(c.Logger.Level); err != nil {
		return errors.Wrapf(ErrInvalidConfig, "logger level %q", c.Logger.Level)
	}
	if _, err := c.N3Bind(); err != nil {
		return errors.Wrapf(ErrInvalidConfig, "n3: %s", err)
	}
	if _, err := c.F1UBind(); err != nil {
		return errors.Wrapf(ErrInvalidConfig, "f1u: %s", err)
	}
	for _, ext := range []string{c.N3.ExtAddress, c.F1U.ExtAddress} {
		if ext == "" {
			continue
		}
		if _, err := netip.ParseAddr(ext); err != nil {
			return errors.Wrapf(ErrInvalidConfig, "ext-address %q", ext)
		}
	}
	if err := c.Demux.Validate(); err != nil {
		return errors.Wrapf(ErrInvalidConfig, "demux: %s", err)
	}
	if c.Demux.TestMode && (!c.TestMode || len(c.Bearers) == 0) {
		return errors.Wrap(ErrInvalidConfig, "demux test-mode requires test-mode and at least one bearer")
	}
	if c.UEDLAMBR == 0 && !c.N3.IgnoreUEAMBR {
		return errors.Wrap(ErrInvalidConfig, "ue-dl-ambr must be set unless n3 ignore-ue-ambr is set")
	}
	if c.TEIDPools.N3 == 0 || c.TEIDPools.F1U == 0 {
		return errors.Wrap(ErrInvalidConfig, "teid-pools sizes must be strictly greater than zero")
	}
	seen := make(map[api.FiveQI]struct{}, len(c.QoS))
	for _, q := range c.QoS {
		if _, exists := seen[q.FiveQI]; exists {
			return errors.Wrapf(ErrInvalidConfig, "5QI %d configured twice", q.FiveQI)
		}
		seen[q.FiveQI] = struct{}{}
		if q.PDCP.MaxNofCryptoWorkers < 0 {
			return errors.Wrapf(ErrInvalidConfig, "5QI %d: max-nof-crypto-workers must not be negative", q.FiveQI)
		}
	}
	for _, b := range c.Bearers {
		if _, ok := seen[b.FiveQI]; !ok {
			return errors.Wrapf(ErrInvalidConfig, "bearer of UE %d uses unconfigured 5QI %d", b.UEIndex, b.FiveQI)
		}
		if _, err := b.UPF.Info(); err != nil {
			return err
		}
		if b.DU != nil {
			if _, err := b.DU.Info(); err != nil {
				return err
			}
		}
	}
	return nil
}

func (c *CUUPConfig) LogLevel() logrus.Level {
	level, err := logrus.ParseLevel(c.Logger.Level)
	if err != nil {
		return logrus.InfoLevel
	}
	return level
}

func (c *CUUPConfig) N3Bind() (netip.AddrPort, error) {
	return cuuputil.ParseBindAddress(c.N3.BindAddress, cuuputil.GTPU_PORT)
}

func (c *CUUPConfig) F1UBind() (netip.AddrPort, error) {
	return cuuputil.ParseBindAddress(c.F1U.BindAddress, cuuputil.GTPU_PORT)
}

// N3ExtAddress returns the zero Addr when no address is advertised.
func (c *CUUPConfig) N3ExtAddress() netip.Addr {
	addr, _ := netip.ParseAddr(c.N3.ExtAddress)
	return addr
}

func (c *CUUPConfig) F1UExtAddress() netip.Addr {
	addr, _ := netip.ParseAddr(c.F1U.ExtAddress)
	return addr
}

// QoSTable returns the per-5QI profiles handed to the session managers.
func (c *CUUPConfig) QoSTable() map[api.FiveQI]api.QoSConfig {
	table := make(map[api.FiveQI]api.QoSConfig, len(c.QoS))
	for _, q := range c.QoS {
		table[q.FiveQI] = api.QoSConfig{
			PDCPCustom: api.PDCPCustomConfig{
				MaxNofCryptoWorkers: q.PDCP.MaxNofCryptoWorkers,
				WarnOnDrop:          q.PDCP.WarnOnDrop,
				TestMode:            c.TestMode,
			},
			F1U: api.F1UConfig{
				WarnOnDrop: q.F1U.WarnOnDrop,
				QueueSize:  q.F1U.QueueSize,
				BatchSize:  q.F1U.BatchSize,
			},
		}
	}
	return table
}

func (c *CUUPConfig) N3Params() api.N3Config {
	return api.N3Config{
		UPFPort:      c.N3.UPFPort,
		IgnoreUEAMBR: c.N3.IgnoreUEAMBR,
		WarnOnDrop:   c.N3.WarnOnDrop,
		TestMode:     c.TestMode,
	}
}
