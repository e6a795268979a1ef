package csv

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/openkeyhub/governance/internal/export/types"
)

const (
	ProposalsFile = "proposals.csv"
	VotesFile     = "votes.csv"
)

var (
	ProposalsHeader = []string{
		"proposal_id", "kind", "status", "proposer_hash", "yes_votes", "no_votes",
		"abstain_votes", "quorum_required", "approval_ratio", "finalized_at",
	}
	VotesHeader = []string{"proposal_id", "voter_hash", "choice", "voting_power", "delegations"}
)

// Exporter handles exporting proposal outcomes to csv files.
type Exporter struct {
	outDir string
}

// New creates a new csv exporter instance.
func New(outDir string) *Exporter {
	return &Exporter{outDir: outDir}
}

// Export writes proposals and votes to separate csv files.
func (e *Exporter) Export(proposals []*types.ProposalRecord, votes []*types.VoteRecord) error {
	proposalRows := make([][]string, 0, len(proposals))
	for _, p := range proposals {
		proposalRows = append(proposalRows, []string{
			p.ProposalID,
			p.Kind,
			p.Status,
			p.ProposerHash,
			strconv.FormatUint(p.Yes, 10),
			strconv.FormatUint(p.No, 10),
			strconv.FormatUint(p.Abstain, 10),
			strconv.FormatUint(p.QuorumRequired, 10),
			strconv.FormatFloat(p.ApprovalRatio, 'f', 2, 64),
			p.FinalizedAt,
		})
	}

	voteRows := make([][]string, 0, len(votes))
	for _, v := range votes {
		voteRows = append(voteRows, []string{
			v.ProposalID,
			v.VoterHash,
			v.Choice,
			strconv.FormatUint(v.VotingPower, 10),
			strconv.Itoa(v.Delegations),
		})
	}

	if err := e.writeFile(ProposalsFile, ProposalsHeader, proposalRows); err != nil {
		return fmt.Errorf("failed to export proposals: %w", err)
	}

	if err := e.writeFile(VotesFile, VotesHeader, voteRows); err != nil {
		return fmt.Errorf("failed to export votes: %w", err)
	}

	return nil
}

// writeFile replaces filename with the header and rows.
func (e *Exporter) writeFile(filename string, header []string, rows [][]string) error {
	file, err := os.Create(filepath.Join(e.outDir, filename))
	if err != nil {
		return fmt.Errorf("failed to create csv file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)

	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	if err := writer.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write records: %w", err)
	}

	return nil
}
