package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProposal(dates ...string) *Proposal {
	return NewProposal(uuid.New(), uuid.New(), "Dinner", "", dates, true)
}

func TestCastVoteIsIdempotent(t *testing.T) {
	p := newTestProposal("2026-02-10")
	voter := MemberVoter(uuid.New(), "alice")

	var last time.Time
	for i := 0; i < 5; i++ {
		last = time.Date(2026, 1, 1, 0, 0, i, 0, time.UTC)
		require.NoError(t, p.CastVote(voter, "2026-02-10", ChoiceAvailable, last))
	}

	votes := p.Candidates[0].Votes
	require.Len(t, votes, 1)
	assert.Equal(t, ChoiceAvailable, votes[0].Choice)
	assert.Equal(t, last, votes[0].VotedAt)
	assert.Len(t, p.Participants, 1)
}

func TestCastVoteOverwritesPreviousChoice(t *testing.T) {
	p := newTestProposal("2026-02-10")
	voter := MemberVoter(uuid.New(), "alice")

	require.NoError(t, p.CastVote(voter, "2026-02-10", ChoiceAvailable, time.Now()))
	require.NoError(t, p.CastVote(voter, "2026-02-10", ChoiceUnavailable, time.Now()))

	votes := p.Candidates[0].Votes
	require.Len(t, votes, 1)
	assert.Equal(t, ChoiceUnavailable, votes[0].Choice)
}

func TestCastVoteMovesActiveToVoting(t *testing.T) {
	p := newTestProposal("2026-02-10")
	require.Equal(t, ProposalActive, p.Status)

	require.NoError(t, p.CastVote(GuestVoter("bob"), "2026-02-10", ChoiceMaybe, time.Now()))
	assert.Equal(t, ProposalVoting, p.Status)
}

func TestCastVoteRejectsClosedAndUnknownCandidate(t *testing.T) {
	p := newTestProposal("2026-02-10")
	voter := MemberVoter(uuid.New(), "alice")

	assert.ErrorIs(t, p.CastVote(voter, "2026-03-01", ChoiceAvailable, time.Now()), ErrUnknownCandidate)

	require.NoError(t, p.Cancel(time.Now()))
	assert.ErrorIs(t, p.CastVote(voter, "2026-02-10", ChoiceAvailable, time.Now()), ErrVotingClosed)
}

func TestGuestIdentityIsByName(t *testing.T) {
	p := newTestProposal("2026-02-10")

	require.NoError(t, p.CastVote(GuestVoter("Sam"), "2026-02-10", ChoiceAvailable, time.Now()))
	require.NoError(t, p.CastVote(GuestVoter(" Sam "), "2026-02-10", ChoiceUnavailable, time.Now()))
	require.NoError(t, p.CastVote(GuestVoter("sam"), "2026-02-10", ChoiceMaybe, time.Now()))

	votes := p.Candidates[0].Votes
	require.Len(t, votes, 2)
	assert.Equal(t, ChoiceUnavailable, votes[0].Choice)
	assert.Equal(t, "sam", votes[1].Voter.Name)
}

func TestConsensusPicksFirstFullyAvailableCandidate(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	members := []uuid.UUID{a, b, c}

	p := newTestProposal("2026-02-10", "2026-02-11")
	for _, id := range []uuid.UUID{a, b} {
		require.NoError(t, p.CastVote(MemberVoter(id, ""), "2026-02-10", ChoiceAvailable, time.Now()))
	}
	for _, id := range members {
		require.NoError(t, p.CastVote(MemberVoter(id, ""), "2026-02-11", ChoiceAvailable, time.Now()))
	}

	date, ok := p.ConsensusDate(members)
	require.True(t, ok)
	assert.Equal(t, "2026-02-11", date)

	require.NoError(t, p.CastVote(MemberVoter(c, ""), "2026-02-10", ChoiceAvailable, time.Now()))
	date, ok = p.ConsensusDate(members)
	require.True(t, ok)
	assert.Equal(t, "2026-02-10", date)
}

func TestConsensusIgnoresNonMemberVotes(t *testing.T) {
	a, b, former := uuid.New(), uuid.New(), uuid.New()

	p := newTestProposal("2026-02-10")
	for _, id := range []uuid.UUID{a, former} {
		require.NoError(t, p.CastVote(MemberVoter(id, ""), "2026-02-10", ChoiceAvailable, time.Now()))
	}
	require.NoError(t, p.CastVote(GuestVoter("b"), "2026-02-10", ChoiceAvailable, time.Now()))

	_, ok := p.ConsensusDate([]uuid.UUID{a, b})
	assert.False(t, ok)

	require.NoError(t, p.CastVote(MemberVoter(b, ""), "2026-02-10", ChoiceMaybe, time.Now()))
	_, ok = p.ConsensusDate([]uuid.UUID{a, b})
	assert.False(t, ok)

	require.NoError(t, p.CastVote(MemberVoter(b, ""), "2026-02-10", ChoiceAvailable, time.Now()))
	date, ok := p.ConsensusDate([]uuid.UUID{a, b})
	assert.True(t, ok)
	assert.Equal(t, "2026-02-10", date)
}

func TestConsensusSingleMemberIsTrivial(t *testing.T) {
	solo := uuid.New()
	p := newTestProposal("2026-02-10", "2026-02-11")

	_, ok := p.ConsensusDate([]uuid.UUID{solo})
	assert.False(t, ok)

	require.NoError(t, p.CastVote(MemberVoter(solo, ""), "2026-02-11", ChoiceAvailable, time.Now()))
	date, ok := p.ConsensusDate([]uuid.UUID{solo})
	assert.True(t, ok)
	assert.Equal(t, "2026-02-11", date)
}

func TestMarkConfirmedOnlyOnce(t *testing.T) {
	p := newTestProposal("2026-02-10")

	require.NoError(t, p.MarkConfirmed("2026-02-10", time.Now()))
	assert.Equal(t, ProposalConfirmed, p.Status)
	assert.Equal(t, "2026-02-10", p.FinalDate)

	assert.ErrorIs(t, p.MarkConfirmed("2026-02-10", time.Now()), ErrNotConfirmable)

	p.RevertConfirmation(ProposalVoting, time.Now())
	assert.Equal(t, ProposalVoting, p.Status)
	assert.Empty(t, p.FinalDate)
}

func TestCloneDoesNotShareVotes(t *testing.T) {
	p := newTestProposal("2026-02-10")
	require.NoError(t, p.CastVote(GuestVoter("x"), "2026-02-10", ChoiceAvailable, time.Now()))

	cp := p.Clone()
	require.NoError(t, cp.CastVote(GuestVoter("y"), "2026-02-10", ChoiceAvailable, time.Now()))

	assert.Len(t, p.Candidates[0].Votes, 1)
	assert.Len(t, cp.Candidates[0].Votes, 2)
}

func TestNormalizeDates(t *testing.T) {
	dates, err := NormalizeDates([]string{"2026-02-11", " 2026-02-10", "2026-02-11"})
	require.NoError(t, err)
	assert.Equal(t, []string{"2026-02-11", "2026-02-10"}, dates)

	_, err = NormalizeDates([]string{"11/02/2026"})
	assert.ErrorIs(t, err, ErrInvalidDate)
}

func TestParseChoiceAcceptsIfNeedBe(t *testing.T) {
	c, err := ParseChoice("if_need_be")
	require.NoError(t, err)
	assert.Equal(t, ChoiceMaybe, c)

	_, err = ParseChoice("yes")
	assert.ErrorIs(t, err, ErrInvalidChoice)
}
