package game

const (
	StartingCoins = 3
	MaxNameLen    = 20
)

// PlayerState is one player's economic state within a room. It is mutated
// only while the owning room's lock is held.
type PlayerState struct {
	Coins       int      `json:"coins"`
	Enterprises []string `json:"enterprises"`
	Landmarks   []string `json:"landmarks"`
	Name        string   `json:"name"`
}

// NewPlayerState returns the starting configuration: 3 coins, a wheat field
// and a bakery, no landmarks.
func NewPlayerState() *PlayerState {
	return &PlayerState{
		Coins:       StartingCoins,
		Enterprises: []string{CardWheat, CardBakery},
		Landmarks:   []string{},
	}
}

// Reset reinitializes the economic state while preserving the display name.
func (p *PlayerState) Reset() {
	p.Coins = StartingCoins
	p.Enterprises = []string{CardWheat, CardBakery}
	p.Landmarks = []string{}
}

// SetName stores a display name, truncated to MaxNameLen characters.
func (p *PlayerState) SetName(name string) {
	if len(name) > MaxNameLen {
		name = name[:MaxNameLen]
	}
	p.Name = name
}

func (p *PlayerState) Owns(cardID string) bool {
	for _, id := range p.Enterprises {
		if id == cardID {
			return true
		}
	}
	return false
}

func (p *PlayerState) HasLandmark(landmarkID string) bool {
	for _, id := range p.Landmarks {
		if id == landmarkID {
			return true
		}
	}
	return false
}

// HasWon reports whether the player owns every landmark.
func (p *PlayerState) HasWon() bool {
	return len(p.Landmarks) >= LandmarksToWin
}

// Buy purchases an enterprise card if the player can afford it. Duplicate
// copies are allowed.
func (p *PlayerState) Buy(cardID string) bool {
	cost := EnterpriseCost(cardID)
	if p.Coins < cost {
		return false
	}
	p.Coins -= cost
	p.Enterprises = append(p.Enterprises, cardID)
	return true
}

// Build constructs a landmark. It rejects unknown ids, duplicates and
// unaffordable purchases.
func (p *PlayerState) Build(landmarkID string) bool {
	cost, ok := LandmarkCost(landmarkID)
	if !ok {
		return false
	}
	if p.HasLandmark(landmarkID) || p.Coins < cost {
		return false
	}
	p.Coins -= cost
	p.Landmarks = append(p.Landmarks, landmarkID)
	return true
}

// Clone returns a deep copy safe to hand to marshalling code outside the
// room lock.
func (p *PlayerState) Clone() *PlayerState {
	c := &PlayerState{
		Coins:       p.Coins,
		Enterprises: make([]string, len(p.Enterprises)),
		Landmarks:   make([]string, len(p.Landmarks)),
		Name:        p.Name,
	}
	copy(c.Enterprises, p.Enterprises)
	copy(c.Landmarks, p.Landmarks)
	return c
}
