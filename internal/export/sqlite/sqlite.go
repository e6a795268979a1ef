package sqlite

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/openkeyhub/governance/internal/export/types"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

// Filename is the name of the exported database.
const Filename = "governance.db"

const batchSize = 1000

const schema = `
	CREATE TABLE proposals (
		proposal_id TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		status TEXT NOT NULL,
		proposer_hash TEXT NOT NULL,
		yes_votes INTEGER NOT NULL,
		no_votes INTEGER NOT NULL,
		abstain_votes INTEGER NOT NULL,
		quorum_required INTEGER NOT NULL,
		approval_ratio REAL NOT NULL,
		finalized_at TEXT NOT NULL
	);

	CREATE TABLE votes (
		proposal_id TEXT NOT NULL REFERENCES proposals (proposal_id),
		voter_hash TEXT NOT NULL,
		choice TEXT NOT NULL,
		voting_power INTEGER NOT NULL,
		delegations INTEGER NOT NULL,
		PRIMARY KEY (proposal_id, voter_hash)
	);

	CREATE INDEX votes_voter_hash_idx ON votes (voter_hash);
`

// Exporter handles exporting proposal outcomes to a SQLite database.
type Exporter struct {
	outDir string
}

// New creates a new SQLite exporter instance.
func New(outDir string) *Exporter {
	return &Exporter{outDir: outDir}
}

// Export writes proposals and votes to a fresh database file.
func (e *Exporter) Export(proposals []*types.ProposalRecord, votes []*types.VoteRecord) error {
	path := filepath.Join(e.outDir, Filename)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove existing file %s: %w", Filename, err)
	}

	conn, err := sqlite.OpenConn(path, sqlite.OpenCreate|sqlite.OpenReadWrite)
	if err != nil {
		return fmt.Errorf("failed to open SQLite database: %w", err)
	}
	defer conn.Close()

	if err := sqlitex.ExecuteScript(conn, schema, nil); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	if err := insertBatches(conn, proposals, insertProposal); err != nil {
		return fmt.Errorf("failed to export proposals: %w", err)
	}

	if err := insertBatches(conn, votes, insertVote); err != nil {
		return fmt.Errorf("failed to export votes: %w", err)
	}

	return nil
}

// insertBatches inserts records in transactions of batchSize rows.
func insertBatches[T any](conn *sqlite.Conn, records []T, insert func(*sqlite.Conn, T) error) error {
	for i := 0; i < len(records); i += batchSize {
		end := min(i+batchSize, len(records))

		if err := insertBatch(conn, records[i:end], insert); err != nil {
			return err
		}
	}
	return nil
}

func insertBatch[T any](conn *sqlite.Conn, batch []T, insert func(*sqlite.Conn, T) error) (err error) {
	endFn, err := sqlitex.ImmediateTransaction(conn)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer endFn(&err)

	for _, record := range batch {
		if err := insert(conn, record); err != nil {
			return err
		}
	}
	return nil
}

func insertProposal(conn *sqlite.Conn, p *types.ProposalRecord) error {
	err := sqlitex.Execute(conn, `
		INSERT INTO proposals (
			proposal_id, kind, status, proposer_hash, yes_votes, no_votes,
			abstain_votes, quorum_required, approval_ratio, finalized_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, &sqlitex.ExecOptions{
		Args: []any{
			p.ProposalID, p.Kind, p.Status, p.ProposerHash,
			int64(p.Yes),            //nolint:gosec // token supply fits in int64
			int64(p.No),             //nolint:gosec // token supply fits in int64
			int64(p.Abstain),        //nolint:gosec // token supply fits in int64
			int64(p.QuorumRequired), //nolint:gosec // token supply fits in int64
			p.ApprovalRatio, p.FinalizedAt,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to insert proposal %s: %w", p.ProposalID, err)
	}
	return nil
}

func insertVote(conn *sqlite.Conn, v *types.VoteRecord) error {
	err := sqlitex.Execute(conn, `
		INSERT INTO votes (proposal_id, voter_hash, choice, voting_power, delegations)
		VALUES (?, ?, ?, ?, ?)
	`, &sqlitex.ExecOptions{
		Args: []any{
			v.ProposalID, v.VoterHash, v.Choice,
			int64(v.VotingPower), //nolint:gosec // token supply fits in int64
			v.Delegations,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to insert vote on %s: %w", v.ProposalID, err)
	}
	return nil
}
