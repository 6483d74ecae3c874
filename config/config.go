package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/ethereum/go-ethereum/common"
)

// Config is the marketd node configuration.
type Config struct {
	ListenAddress string `toml:"ListenAddress"`
	DataDir       string `toml:"DataDir"`

	// HostEndpoint is the execution host's contract call endpoint used for
	// collection ownership checks and transfers.
	HostEndpoint string `toml:"HostEndpoint"`

	// Admin controls the collection registry and the platform fee
	// parameters. Checked at call time; never stored in ledger state.
	Admin string `toml:"Admin"`

	// Operator is the marketplace's own address, the approved-for-all
	// operator sellers must grant on their collections.
	Operator string `toml:"Operator"`

	// Initial platform fee configuration, seeded once on first start.
	FeeBps       uint32 `toml:"FeeBps"`
	FeeRecipient string `toml:"FeeRecipient"`
}

// Load reads the configuration from path, writing a default file when none
// exists yet.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if strings.TrimSpace(c.ListenAddress) == "" {
		c.ListenAddress = "127.0.0.1:8645"
	}
	if strings.TrimSpace(c.DataDir) == "" {
		c.DataDir = "./marketdata"
	}
	if strings.TrimSpace(c.HostEndpoint) == "" {
		c.HostEndpoint = "http://127.0.0.1:8545/call"
	}
}

// Validate checks the addresses and fee bounds before the node starts.
func (c *Config) Validate() error {
	if _, err := parseAddress("Admin", c.Admin); err != nil {
		return err
	}
	if _, err := parseAddress("Operator", c.Operator); err != nil {
		return err
	}
	if _, err := parseAddress("FeeRecipient", c.FeeRecipient); err != nil {
		return err
	}
	if c.FeeBps > 500 {
		return fmt.Errorf("config: FeeBps %d exceeds the 500 cap", c.FeeBps)
	}
	return nil
}

// AdminAddress returns the parsed administrator identity.
func (c *Config) AdminAddress() common.Address {
	addr, _ := parseAddress("Admin", c.Admin)
	return addr
}

// OperatorAddress returns the parsed marketplace operator identity.
func (c *Config) OperatorAddress() common.Address {
	addr, _ := parseAddress("Operator", c.Operator)
	return addr
}

// FeeRecipientAddress returns the parsed initial fee recipient.
func (c *Config) FeeRecipientAddress() common.Address {
	addr, _ := parseAddress("FeeRecipient", c.FeeRecipient)
	return addr
}

func parseAddress(field, value string) (common.Address, error) {
	trimmed := strings.TrimSpace(value)
	if !common.IsHexAddress(trimmed) {
		return common.Address{}, fmt.Errorf("config: %s is not a hex address: %q", field, value)
	}
	addr := common.HexToAddress(trimmed)
	if addr == (common.Address{}) {
		return common.Address{}, fmt.Errorf("config: %s is the null address", field)
	}
	return addr, nil
}

func createDefault(path string) (*Config, error) {
	cfg := &Config{
		ListenAddress: "127.0.0.1:8645",
		DataDir:       "./marketdata",
		HostEndpoint:  "http://127.0.0.1:8545/call",
		Admin:         "0x0000000000000000000000000000000000000001",
		Operator:      "0x0000000000000000000000000000000000000002",
		FeeBps:        250,
		FeeRecipient:  "0x0000000000000000000000000000000000000003",
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	if err := toml.NewEncoder(file).Encode(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
