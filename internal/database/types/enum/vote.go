package enum

// VoteChoice represents the option a voter selected.
//
//go:generate go tool enumer -type=VoteChoice -trimprefix=VoteChoice -text
type VoteChoice int

const (
	VoteChoiceYes VoteChoice = iota
	VoteChoiceNo
	VoteChoiceAbstain
)
