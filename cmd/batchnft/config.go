package main

import (
	"errors"
	"fmt"
	"math/big"
	"os"
	"strings"
	"time"

	"github.com/nspcc-dev/batchtransfer-contract/contracts"
	"github.com/nspcc-dev/neo-go/pkg/encoding/address"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"gopkg.in/yaml.v3"
)

const defaultTimeout = 15 * time.Second

// config is read from YAML file passed with --config flag. Command line flags
// override it.
type config struct {
	RPCEndpoint  string        `yaml:"rpc_endpoint"`
	Timeout      time.Duration `yaml:"timeout"`
	Wallet       string        `yaml:"wallet"`
	Account      string        `yaml:"account"`
	Contract     string        `yaml:"contract"`
	Registry     string        `yaml:"registry"`
	MaxBatchSize int64         `yaml:"max_batch_size"`
	Artifacts    string        `yaml:"artifacts"`
}

func defaultConfig() config {
	return config{
		Timeout:   defaultTimeout,
		Artifacts: contracts.BatchTransferDir,
	}
}

func loadConfig(path string) (config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config file: %w", err)
	}

	err = yaml.Unmarshal(data, &cfg)
	if err != nil {
		return cfg, fmt.Errorf("decode YAML config: %w", err)
	}

	return cfg, cfg.validate()
}

func (c config) validate() error {
	if c.Timeout < 0 {
		return errors.New("negative timeout")
	}
	if c.MaxBatchSize < 0 {
		return errors.New("negative max batch size")
	}
	return nil
}

// parseUint160 accepts both Neo addresses and script hashes in LE with
// optional 0x prefix.
func parseUint160(s string) (util.Uint160, error) {
	if s == "" {
		return util.Uint160{}, errors.New("empty value")
	}

	if h, err := address.StringToUint160(s); err == nil {
		return h, nil
	}

	h, err := util.Uint160DecodeStringLE(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return h, fmt.Errorf("neither address nor script hash: %q", s)
	}
	return h, nil
}

func parseBigInt(s string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("invalid integer %q", s)
	}
	return v, nil
}
