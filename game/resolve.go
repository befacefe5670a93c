package game

// Resolve applies the income and transfer effects of one dice roll to both
// players. It mutates only the Coins fields and is deterministic: given the
// same states and dice it always produces the same balances.
//
// Transfers are clamped at the payer's balance, so no balance ever goes
// negative.
func Resolve(active, opponent *PlayerState, d1, d2 int) {
	s := d1 + d2

	// Sum-gated income, paid to either player regardless of whose turn it is.
	if s == 1 {
		creditOwners(CardWheat, 1, active, opponent)
	}
	if s == 2 {
		creditOwners(CardRanch, 1, active, opponent)
	}
	if s == 5 {
		creditOwners(CardForest, 1, active, opponent)
	}

	// Turn-gated income for the active player.
	if (s == 2 || s == 3) && active.Owns(CardBakery) {
		active.Coins++
	}
	if s == 4 && active.Owns(CardConvenience) {
		active.Coins += 2
	}

	// Transfers from the active player to the opponent.
	if s == 3 && opponent.Owns(CardCafe) {
		transfer(active, opponent, 1)
	}
	if (s == 3 || s == 4) && opponent.Owns(CardFamilyRest) {
		transfer(active, opponent, 2)
	}

	// Transfers from the opponent to the active player.
	if s == 6 && active.Owns(CardStadium) {
		transfer(opponent, active, 2)
	}
	if s == 6 && active.Owns(CardTVStation) {
		transfer(opponent, active, 3)
	}

	// Amusement park: doubles pay a bonus to the active player.
	if d1 == d2 && active.HasLandmark(LandmarkAmusement) {
		active.Coins += 5
	}
}

func creditOwners(cardID string, amount int, players ...*PlayerState) {
	for _, p := range players {
		if p.Owns(cardID) {
			p.Coins += amount
		}
	}
}

// transfer moves up to amount coins from one player to the other. A payer
// with insufficient funds pays only what they have.
func transfer(from, to *PlayerState, amount int) {
	if amount > from.Coins {
		amount = from.Coins
	}
	from.Coins -= amount
	to.Coins += amount
}
