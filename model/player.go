package model

import "time"

// Player is one row on the Bedwars leaderboard. All combat and resource
// counters are cumulative and only ever grow during normal play; decreases
// happen solely through explicit admin corrections.
type Player struct {
	ID        int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Nickname  string `gorm:"uniqueIndex;size:100;not null" json:"nickname"`
	AccountID *int64 `gorm:"index:idx_player_account" json:"account_id"`

	Kills       int `gorm:"default:0;not null" json:"kills"`
	FinalKills  int `gorm:"default:0;not null" json:"final_kills"`
	Deaths      int `gorm:"default:0;not null" json:"deaths"`
	FinalDeaths int `gorm:"default:0;not null" json:"final_deaths"`
	BedsBroken  int `gorm:"default:0;not null" json:"beds_broken"`
	GamesPlayed int `gorm:"default:0;not null" json:"games_played"`
	Wins        int `gorm:"default:0;not null" json:"wins"`
	Experience  int `gorm:"default:0;not null" json:"experience"`

	IronCollected    int `gorm:"default:0;not null" json:"iron_collected"`
	GoldCollected    int `gorm:"default:0;not null" json:"gold_collected"`
	DiamondCollected int `gorm:"default:0;not null" json:"diamond_collected"`
	EmeraldCollected int `gorm:"default:0;not null" json:"emerald_collected"`
	ItemsPurchased   int `gorm:"default:0;not null" json:"items_purchased"`

	Coins      int `gorm:"default:0;not null" json:"coins"`
	Reputation int `gorm:"default:0;not null" json:"reputation"`

	Role     string `gorm:"size:50;default:'player'" json:"role"`
	ServerIP string `gorm:"size:100" json:"server_ip"`

	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	LastUpdated time.Time `gorm:"autoUpdateTime" json:"last_updated"`
}

// TotalResources sums the four resource-collection counters.
func (p *Player) TotalResources() int {
	return p.IronCollected + p.GoldCollected + p.DiamondCollected + p.EmeraldCollected
}

// StatValue reads a named cumulative counter off the player record.
// Unknown names read as 0 so a misconfigured quest type can never
// produce progress.
func (p *Player) StatValue(name string) int {
	switch name {
	case "kills":
		return p.Kills
	case "final_kills":
		return p.FinalKills
	case "deaths":
		return p.Deaths
	case "final_deaths":
		return p.FinalDeaths
	case "beds_broken":
		return p.BedsBroken
	case "games_played":
		return p.GamesPlayed
	case "wins":
		return p.Wins
	case "experience":
		return p.Experience
	case "iron_collected":
		return p.IronCollected
	case "gold_collected":
		return p.GoldCollected
	case "diamond_collected":
		return p.DiamondCollected
	case "emerald_collected":
		return p.EmeraldCollected
	case "items_purchased":
		return p.ItemsPurchased
	case "total_resources":
		return p.TotalResources()
	default:
		return 0
	}
}

// ClampStats floors every counter at zero. Negative values can only come
// from malformed admin input and must never enter a formula.
func (p *Player) ClampStats() {
	for _, field := range []*int{
		&p.Kills, &p.FinalKills, &p.Deaths, &p.FinalDeaths,
		&p.BedsBroken, &p.GamesPlayed, &p.Wins, &p.Experience,
		&p.IronCollected, &p.GoldCollected, &p.DiamondCollected,
		&p.EmeraldCollected, &p.ItemsPurchased, &p.Coins, &p.Reputation,
	} {
		if *field < 0 {
			*field = 0
		}
	}
}
