// Package bracket lays out single-elimination brackets.
//
// Slot k of round r feeds slot ceil(k/2) of round r+1; odd slots fill the
// player1 side and even slots the player2 side. Round r has ceil(N/2^r)
// slots. A later-round slot fed by a single match is a pass-through and is
// not recorded; winners route across it to the next recorded slot.
package bracket

import (
	"math/bits"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"esports-platform/internal/status"
	"esports-platform/models"
)

type Planner struct {
	// Shuffle permutes n seeds. Defaults to math/rand.Shuffle.
	Shuffle func(n int, swap func(i, j int))
	NewID   func() string
	Now     func() time.Time
}

func NewPlanner() *Planner {
	return &Planner{
		Shuffle: rand.Shuffle,
		NewID:   uuid.NewString,
		Now:     time.Now,
	}
}

type Plan struct {
	Rounds  int
	Matches []models.Match
}

// Rounds returns ceil(log2 n), the number of rounds needed for n entrants.
func Rounds(n int) int {
	if n < 2 {
		return 0
	}
	return bits.Len(uint(n - 1))
}

// slots returns ceil(n / 2^round).
func slots(n, round int) int {
	d := 1 << round
	return (n + d - 1) / d
}

type position struct {
	round, slot int
}

// Plan shuffles the participants and builds every recorded match of the
// bracket. Round 1 holds ceil(N/2) matches; an odd entrant out gets a
// completed bye whose winner is already placed in its destination match.
func (p *Planner) Plan(eventID string, participants []string) (*Plan, error) {
	if err := validateParticipants(participants); err != nil {
		return nil, err
	}

	seeds := make([]string, len(participants))
	copy(seeds, participants)
	p.Shuffle(len(seeds), func(i, j int) { seeds[i], seeds[j] = seeds[j], seeds[i] })

	n := len(seeds)
	rounds := Rounds(n)
	now := p.Now().UTC()

	index := map[position]int{}
	var matches []models.Match
	number := 0

	for r := 1; r <= rounds; r++ {
		for k := 1; k <= slots(n, r); k++ {
			if r > 1 && feeders(n, r, k) < 2 {
				continue
			}
			number++
			m := models.Match{
				ID:          p.NewID(),
				EventID:     eventID,
				Round:       r,
				MatchNumber: number,
				Slot:        k,
				Status:      models.MatchPending,
			}
			if r == 1 {
				m.Player1ID = seeds[2*k-2]
				if 2*k-1 < n {
					m.Player2ID = seeds[2*k-1]
				} else {
					m.IsBye = true
					m.WinnerID = m.Player1ID
					m.Status = models.MatchCompleted
					completed := now
					m.CompletedAt = &completed
				}
			}
			index[position{r, k}] = len(matches)
			matches = append(matches, m)
		}
	}

	for i := range matches {
		dest, side, ok := destination(n, rounds, matches[i].Round, matches[i].Slot)
		if !ok {
			continue
		}
		parent := &matches[index[dest]]
		matches[i].NextMatchID = parent.ID
		matches[i].NextSlot = side

		if matches[i].IsBye {
			placeWinner(parent, side, matches[i].WinnerID)
		}
	}

	return &Plan{Rounds: rounds, Matches: matches}, nil
}

// feeders counts the previous-round slots that feed slot k of round r.
func feeders(n, r, k int) int {
	prev := slots(n, r-1)
	count := 0
	if 2*k-1 <= prev {
		count++
	}
	if 2*k <= prev {
		count++
	}
	return count
}

// destination walks up from (r, k) across pass-through slots and returns the
// next recorded slot and the side the winner fills. ok is false for the final.
func destination(n, rounds, r, k int) (position, int, bool) {
	for r < rounds {
		side := 2
		if k%2 == 1 {
			side = 1
		}
		r, k = r+1, (k+1)/2
		if feeders(n, r, k) == 2 {
			return position{r, k}, side, true
		}
	}
	return position{}, 0, false
}

func placeWinner(m *models.Match, side int, winner string) {
	if side == 1 {
		m.Player1ID = winner
	} else {
		m.Player2ID = winner
	}
}

func validateParticipants(ids []string) error {
	if len(ids) < 2 {
		return status.Invalid("participants", "at least 2 participants are required to generate a bracket")
	}
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id == "" {
			return status.Invalid("participants", "participant id cannot be empty")
		}
		if _, dup := seen[id]; dup {
			return status.Invalid("participants", "participant "+id+" appears more than once")
		}
		seen[id] = struct{}{}
	}
	return nil
}
