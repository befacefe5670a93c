package game

// Enterprise card ids.
const (
	CardWheat       = "wheat"
	CardRanch       = "ranch"
	CardForest      = "forest"
	CardBakery      = "bakery"
	CardConvenience = "convenience"
	CardCafe        = "cafe"
	CardFamilyRest  = "familyRest"
	CardStadium     = "stadium"
	CardTVStation   = "tvstation"
)

// Landmark ids. Owning all four ends the game.
const (
	LandmarkStation   = "station"
	LandmarkMall      = "mall"
	LandmarkAmusement = "amusement"
	LandmarkTVTower   = "tvTower"
)

const LandmarksToWin = 4

// DefaultEnterpriseCost applies to card ids missing from the table.
const DefaultEnterpriseCost = 1

var enterpriseCosts = map[string]int{
	CardWheat:       1,
	CardRanch:       1,
	CardForest:      3,
	CardBakery:      1,
	CardConvenience: 2,
	CardCafe:        2,
	CardFamilyRest:  3,
	CardStadium:     6,
	CardTVStation:   7,
}

var landmarkCosts = map[string]int{
	LandmarkStation:   4,
	LandmarkMall:      10,
	LandmarkAmusement: 16,
	LandmarkTVTower:   22,
}

// EnterpriseCost returns the purchase price of an enterprise card.
func EnterpriseCost(cardID string) int {
	if cost, ok := enterpriseCosts[cardID]; ok {
		return cost
	}
	return DefaultEnterpriseCost
}

// LandmarkCost returns the construction price of a landmark, or false for an
// unknown id.
func LandmarkCost(landmarkID string) (int, bool) {
	cost, ok := landmarkCosts[landmarkID]
	return cost, ok
}
