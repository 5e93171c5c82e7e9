package cli

import (
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/roach88/chainseal/internal/ledger"
)

// GenesisConfig parameterizes the policies a ledger is initialized with.
// Loaded from a CUE file:
//
//	genesis: {
//		record_address: "addr_records"
//		token_name:     "seal"
//	}
//
// token_name is optional and defaults to the canonical proof token name.
type GenesisConfig struct {
	RecordAddress string `json:"record_address"`
	TokenName     string `json:"token_name"`
}

// LoadGenesis reads and validates a genesis CUE file.
func LoadGenesis(path string) (*GenesisConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read genesis file: %w", err)
	}

	ctx := cuecontext.New()
	value := ctx.CompileBytes(data, cue.Filename(path))
	if err := value.Err(); err != nil {
		return nil, fmt.Errorf("failed to compile genesis CUE: %w", err)
	}

	genesisVal := value.LookupPath(cue.ParsePath("genesis"))
	if !genesisVal.Exists() {
		return nil, fmt.Errorf("genesis file %s has no top-level \"genesis\" field", path)
	}

	var cfg GenesisConfig
	if err := genesisVal.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode genesis block: %w", err)
	}

	if cfg.RecordAddress == "" {
		return nil, fmt.Errorf("genesis.record_address is required")
	}
	if cfg.TokenName == "" {
		cfg.TokenName = ledger.SealTokenName
	}

	return &cfg, nil
}
