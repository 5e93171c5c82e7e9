package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/chainseal/internal/store"
)

// VerdictResult is the output payload for commands that submit a
// transaction.
type VerdictResult struct {
	Accepted bool   `json:"accepted"`
	TxID     string `json:"tx_id"`
	Seq      int64  `json:"seq"`
	Token    string `json:"token"`
	Code     string `json:"code,omitempty"`
	Detail   string `json:"detail,omitempty"`
}

// emitVerdict renders a verdict and maps rejection to exit code 1.
func emitVerdict(cmd *cobra.Command, formatter *OutputFormatter, verdict store.Verdict) error {
	result := VerdictResult{
		Accepted: verdict.Accepted,
		TxID:     verdict.TxID,
		Seq:      verdict.Seq,
		Token:    verdict.Token,
		Code:     verdict.Code,
		Detail:   verdict.Detail,
	}

	if formatter.Format == "json" {
		if err := formatter.Success(result); err != nil {
			return err
		}
	} else if verdict.Accepted {
		fmt.Fprintf(cmd.OutOrStdout(), "Accepted: tx %s (seq %d)\n", verdict.TxID, verdict.Seq)
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "Rejected [%s]: %s\n", verdict.Code, verdict.Detail)
		fmt.Fprintf(cmd.OutOrStdout(), "  tx %s (seq %d)\n", verdict.TxID, verdict.Seq)
	}

	if !verdict.Accepted {
		return NewExitError(ExitFailure, fmt.Sprintf("transaction rejected: %s", verdict.Code))
	}
	return nil
}
