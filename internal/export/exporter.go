package export

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/bytedance/sonic"
	dbTypes "github.com/openkeyhub/governance/internal/database/types"
	"github.com/openkeyhub/governance/internal/export/csv"
	"github.com/openkeyhub/governance/internal/export/sqlite"
	"github.com/openkeyhub/governance/internal/export/types"
	"github.com/openkeyhub/governance/internal/governance"
	"go.uber.org/zap"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported export format")
	ErrInvalidHashType   = errors.New("invalid hash type")
	ErrMissingSalt       = errors.New("export salt is required")
	ErrInvalidParams     = errors.New("invalid hash parameters")
)

// Format represents a supported export format.
type Format string

const (
	FormatSQLite Format = "sqlite"
	FormatCSV    Format = "csv"
)

// EngineVersion is bumped on breaking changes to the export layout.
const EngineVersion = "1.0.0"

// Config holds the configuration for exports.
type Config struct {
	ExportVersion string   `json:"exportVersion"`
	Salt          string   `json:"salt"`
	Description   string   `json:"description"`
	HashType      HashType `json:"hashType"`
	Iterations    uint32   `json:"iterations"`
	Memory        uint32   `json:"memory,omitempty"`
	Concurrency   int      `json:"-"`
}

// Validate checks the hashing parameters.
func (c *Config) Validate() error {
	if c.Salt == "" {
		return ErrMissingSalt
	}
	if !c.HashType.IsValid() {
		return fmt.Errorf("%w: %s", ErrInvalidHashType, c.HashType)
	}
	if c.Iterations == 0 {
		return fmt.Errorf("%w: iterations must be positive", ErrInvalidParams)
	}
	if c.HashType == HashTypeArgon2id && c.Memory == 0 {
		return fmt.Errorf("%w: argon2id memory must be positive", ErrInvalidParams)
	}
	return nil
}

// Source lists proposals together with their votes.
type Source interface {
	ListProposals(ctx context.Context, filter dbTypes.ProposalFilter, page dbTypes.Pagination) (*dbTypes.ProposalPage, error)
}

// Summary describes a completed export.
type Summary struct {
	Proposals int
	Votes     int
	Voters    int
}

// Exporter writes finalized proposal outcomes and their anonymised votes.
type Exporter struct {
	source  Source
	outDir  string
	config  *Config
	formats []Format
	logger  *zap.Logger
}

// New creates a new exporter instance.
func New(source Source, outDir string, config *Config, logger *zap.Logger) *Exporter {
	return &Exporter{
		source: source,
		outDir: outDir,
		config: config,
		formats: []Format{
			FormatSQLite,
			FormatCSV,
		},
		logger: logger.Named("export"),
	}
}

// ExportAll exports all finalized proposals in every supported format.
func (e *Exporter) ExportAll(ctx context.Context) (*Summary, error) {
	if err := e.config.Validate(); err != nil {
		return nil, err
	}

	e.logger.Info("Starting export",
		zap.String("hashType", string(e.config.HashType)),
		zap.Uint32("iterations", e.config.Iterations),
		zap.Uint32("memory", e.config.Memory),
		zap.Int("concurrency", e.config.Concurrency),
		zap.String("outDir", e.outDir),
		zap.String("exportVersion", e.config.ExportVersion),
		zap.String("engineVersion", EngineVersion))

	proposals, err := e.finalizedProposals(ctx)
	if err != nil {
		return nil, err
	}

	principals := collectPrincipals(proposals)
	e.logger.Info("Fetched finalized proposals",
		zap.Int("proposals", len(proposals)),
		zap.Int("principals", len(principals)))

	hashes, err := hashPrincipals(ctx, principals, e.config, e.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to hash principals: %w", err)
	}

	proposalRecords, voteRecords := buildRecords(proposals, hashes)

	if err := e.writeConfig(); err != nil {
		return nil, err
	}

	for _, format := range e.formats {
		e.logger.Info("Writing export format", zap.String("format", string(format)))

		if err := e.export(format, proposalRecords, voteRecords); err != nil {
			return nil, fmt.Errorf("failed to export %s format: %w", format, err)
		}
	}

	summary := &Summary{
		Proposals: len(proposalRecords),
		Votes:     len(voteRecords),
		Voters:    len(hashes),
	}

	e.logger.Info("Export completed",
		zap.Int("proposals", summary.Proposals),
		zap.Int("votes", summary.Votes),
		zap.String("outDir", e.outDir))

	return summary, nil
}

// finalizedProposals pages through every proposal whose vote was decided.
func (e *Exporter) finalizedProposals(ctx context.Context) ([]*dbTypes.Proposal, error) {
	var proposals []*dbTypes.Proposal

	offset := 0
	for {
		page, err := e.source.ListProposals(ctx, dbTypes.ProposalFilter{}, dbTypes.Pagination{
			Limit:  dbTypes.MaxPageLimit,
			Offset: offset,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to list proposals: %w", err)
		}

		for _, p := range page.Proposals {
			if p.Status.IsFinalized() {
				proposals = append(proposals, p)
			}
		}

		offset += len(page.Proposals)
		if !page.HasMore || len(page.Proposals) == 0 {
			break
		}
	}

	// Oldest first so exports from different runs line up
	slices.Reverse(proposals)
	return proposals, nil
}

// collectPrincipals returns the distinct proposers and voters in first-seen order.
func collectPrincipals(proposals []*dbTypes.Proposal) []string {
	seen := make(map[string]struct{})

	var principals []string
	add := func(principal string) {
		if _, ok := seen[principal]; ok {
			return
		}
		seen[principal] = struct{}{}
		principals = append(principals, principal)
	}

	for _, p := range proposals {
		add(p.Proposer)
		for _, v := range p.Votes {
			add(v.Voter)
		}
	}
	return principals
}

func buildRecords(
	proposals []*dbTypes.Proposal, hashes map[string]string,
) ([]*types.ProposalRecord, []*types.VoteRecord) {
	proposalRecords := make([]*types.ProposalRecord, 0, len(proposals))
	voteRecords := make([]*types.VoteRecord, 0)

	for _, p := range proposals {
		finalizedAt := ""
		if p.FinalizedAt != nil {
			finalizedAt = p.FinalizedAt.UTC().Format(time.RFC3339)
		}

		proposalRecords = append(proposalRecords, &types.ProposalRecord{
			ProposalID:     p.ID,
			Kind:           p.Kind.String(),
			Status:         p.Status.String(),
			ProposerHash:   hashes[p.Proposer],
			Yes:            p.TotalYes,
			No:             p.TotalNo,
			Abstain:        p.TotalAbstain,
			QuorumRequired: p.QuorumRequired,
			ApprovalRatio:  governance.ApprovalRatio(p),
			FinalizedAt:    finalizedAt,
		})

		for _, v := range p.Votes {
			voteRecords = append(voteRecords, &types.VoteRecord{
				ProposalID:  p.ID,
				VoterHash:   hashes[v.Voter],
				Choice:      v.Choice.String(),
				VotingPower: v.VotingPower,
				Delegations: len(v.DelegatedFrom),
			})
		}
	}

	return proposalRecords, voteRecords
}

// writeConfig saves the hashing parameters next to the exported data.
func (e *Exporter) writeConfig() error {
	jsonConfig := struct {
		*Config

		EngineVersion string `json:"engineVersion"`
	}{
		Config:        e.config,
		EngineVersion: EngineVersion,
	}

	configData, err := sonic.MarshalIndent(jsonConfig, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to marshal export config: %w", err)
	}

	if err := os.WriteFile(filepath.Join(e.outDir, "export_config.json"), configData, 0o600); err != nil {
		return fmt.Errorf("failed to write export config: %w", err)
	}
	return nil
}

// export handles exporting data in the specified format.
func (e *Exporter) export(format Format, proposals []*types.ProposalRecord, votes []*types.VoteRecord) error {
	var exporter interface {
		Export(proposals []*types.ProposalRecord, votes []*types.VoteRecord) error
	}

	switch format {
	case FormatSQLite:
		exporter = sqlite.New(e.outDir)
	case FormatCSV:
		exporter = csv.New(e.outDir)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}

	return exporter.Export(proposals, votes)
}
