package governance

import (
	"github.com/openkeyhub/governance/internal/database/types/enum"
	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "governance"

// Metrics holds the engine's prometheus collectors. A nil *Metrics records nothing.
type Metrics struct {
	proposals   *prometheus.CounterVec
	votes       *prometheus.CounterVec
	voteWeight  *prometheus.CounterVec
	transitions *prometheus.CounterVec
	deposits    *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		proposals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "proposals_created_total",
			Help:      "Proposals created, by proposal type.",
		}, []string{"kind"}),
		votes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "votes_cast_total",
			Help:      "Votes recorded, by choice.",
		}, []string{"choice"}),
		voteWeight: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "vote_weight_total",
			Help:      "Voting power recorded, by choice.",
		}, []string{"choice"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "proposal_transitions_total",
			Help:      "Proposal status changes, by destination status.",
		}, []string{"status"}),
		deposits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "deposits_settled_total",
			Help:      "Proposal deposits settled, by outcome.",
		}, []string{"outcome"}),
	}

	reg.MustRegister(m.proposals, m.votes, m.voteWeight, m.transitions, m.deposits)
	return m
}

func (m *Metrics) proposalCreated(kind enum.ProposalKind) {
	if m == nil {
		return
	}
	m.proposals.WithLabelValues(kind.String()).Inc()
}

func (m *Metrics) voteCast(choice enum.VoteChoice, power uint64) {
	if m == nil {
		return
	}
	m.votes.WithLabelValues(choice.String()).Inc()
	m.voteWeight.WithLabelValues(choice.String()).Add(float64(power))
}

func (m *Metrics) transition(status enum.ProposalStatus) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(status.String()).Inc()
}

func (m *Metrics) deposit(status enum.DepositStatus) {
	if m == nil {
		return
	}
	m.deposits.WithLabelValues(status.String()).Inc()
}
