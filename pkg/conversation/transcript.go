package conversation

// Transcript is the ordered, append-only history of a session.
// Insertion order is the only ordering; turns are never reordered or removed.
type Transcript struct {
	turns []Turn
}

func NewTranscript(turns ...Turn) Transcript {
	ret := Transcript{}
	if len(turns) > 0 {
		ret.turns = make([]Turn, len(turns))
		copy(ret.turns, turns)
	}
	return ret
}

func (t Transcript) Len() int {
	return len(t.turns)
}

func (t Transcript) At(idx int) (Turn, bool) {
	if idx < 0 || idx >= len(t.turns) {
		return Turn{}, false
	}
	return t.turns[idx], true
}

func (t Transcript) Last() (Turn, bool) {
	return t.At(len(t.turns) - 1)
}

// Turns returns a copy of the turns, safe to hold on to.
func (t Transcript) Turns() []Turn {
	ret := make([]Turn, len(t.turns))
	copy(ret, t.turns)
	return ret
}

// Append returns a new transcript with turn added at the end. The receiver's
// backing array is never written to, so older values stay valid snapshots.
func (t Transcript) Append(turn Turn) Transcript {
	turns := make([]Turn, len(t.turns), len(t.turns)+1)
	copy(turns, t.turns)
	return Transcript{turns: append(turns, turn)}
}

// CountBySpeaker is mostly useful to check the user/assistant pairing.
func (t Transcript) CountBySpeaker(speaker Speaker) int {
	n := 0
	for _, turn := range t.turns {
		if turn.Speaker == speaker {
			n++
		}
	}
	return n
}
