package engine

import "sort"

// PeerVote is one peer's track vote. The voter is the key it is stored
// under, not a field.
type PeerVote struct {
	PlayerName string
	Track      string
	Laps       uint8
	Reverse    bool
}

// VoteBook keeps the latest vote of every host. The server picks the winner;
// the book only feeds the voting screen.
type VoteBook struct {
	votes map[uint32]PeerVote
}

func NewVoteBook() *VoteBook {
	return &VoteBook{votes: make(map[uint32]PeerVote)}
}

// AddVote stores v for hostID, replacing any earlier vote of that host.
func (b *VoteBook) AddVote(hostID uint32, v PeerVote) {
	b.votes[hostID] = v
}

func (b *VoteBook) RemoveVote(hostID uint32) {
	delete(b.votes, hostID)
}

func (b *VoteBook) Vote(hostID uint32) (PeerVote, bool) {
	v, ok := b.votes[hostID]
	return v, ok
}

func (b *VoteBook) Len() int { return len(b.votes) }

func (b *VoteBook) Clear() { clear(b.votes) }

type HostVote struct {
	HostID uint32
	Vote   PeerVote
}

// Votes returns every vote ordered by host id.
func (b *VoteBook) Votes() []HostVote {
	out := make([]HostVote, 0, len(b.votes))
	for id, v := range b.votes {
		out = append(out, HostVote{HostID: id, Vote: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].HostID < out[j].HostID })
	return out
}

type VoteResult struct {
	Counts    map[string]int
	MostVoted string
	IsTie     bool
}

// Majority counts votes per track. MostVoted is empty when there are no
// votes or when the top count is shared.
func (b *VoteBook) Majority() VoteResult {
	counts := make(map[string]int)
	for _, v := range b.votes {
		counts[v.Track]++
	}

	maxVotes := 0
	var top []string
	for track, n := range counts {
		if n > maxVotes {
			maxVotes = n
			top = []string{track}
		} else if n == maxVotes {
			top = append(top, track)
		}
	}

	res := VoteResult{Counts: counts, IsTie: len(top) > 1}
	if len(top) == 1 {
		res.MostVoted = top[0]
	}
	return res
}
