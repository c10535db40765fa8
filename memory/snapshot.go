package memory

// Snapshot is the serialisable form of a conversation State, used by the
// persistence backends and by session export.
type Snapshot struct {
	Turns          []Turn   `json:"turns"`
	Summary        string   `json:"summary,omitempty"`
	NextID         int64    `json:"next_id"`
	PreferredStyle string   `json:"preferred_style,omitempty"`
	Topics         []string `json:"topics,omitempty"`
}

// Snapshot captures the current state for persistence.
func (s *State) Snapshot() *Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := &Snapshot{
		Turns:          make([]Turn, len(s.turns)),
		Summary:        s.summary,
		NextID:         s.nextID,
		PreferredStyle: s.preferredStyle,
	}
	copy(snap.Turns, s.turns)
	for topic := range s.topics {
		snap.Topics = append(snap.Topics, topic)
	}
	return snap
}

// Restore replaces the state with the contents of a snapshot.
func (s *State) Restore(snap *Snapshot) {
	if snap == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.turns = make([]Turn, len(snap.Turns))
	copy(s.turns, snap.Turns)
	s.summary = snap.Summary
	s.nextID = snap.NextID
	s.preferredStyle = snap.PreferredStyle
	s.topics = make(map[string]bool, len(snap.Topics))
	for _, topic := range snap.Topics {
		s.topics[topic] = true
	}
}
