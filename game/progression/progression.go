// Package progression implements the experience curve, derived combat
// ratios and the automatic experience formula shared by the API layer,
// the quest service and the leaderboard refresher.
package progression

import "math"

// Level returns the level for a cumulative experience total. Experience
// below the first threshold still yields level 1. Past the tabulated
// range every 2,500 XP grants one more level, capped at MaxLevel.
func Level(exp int) int {
	if exp >= maxTableXP {
		lvl := 100 + (exp-maxTableXP)/xpPerPrestigeLevel
		if lvl > MaxLevel {
			return MaxLevel
		}
		return lvl
	}
	level := 0
	for _, threshold := range levelThresholds {
		if exp >= threshold {
			level++
		} else {
			break
		}
	}
	if level < 1 {
		level = 1
	}
	return level
}

// LevelProgress returns the percentage of the way from the current level
// to the next one, rounded to one decimal place and clamped to [0, 100].
// At MaxLevel there is nothing left to earn and the result is 100.
func LevelProgress(exp int) float64 {
	level := Level(exp)
	if level >= MaxLevel {
		return 100
	}

	var lower, upper int
	if level <= 100 {
		lower = levelThresholds[level-1]
		if level < 100 {
			upper = levelThresholds[level]
		} else {
			upper = maxTableXP + xpPerPrestigeLevel
		}
	} else {
		lower = maxTableXP + (level-100)*xpPerPrestigeLevel
		upper = lower + xpPerPrestigeLevel
	}

	progress := 100 * float64(exp-lower) / float64(upper-lower)
	progress = math.Round(progress*10) / 10
	if progress < 0 {
		return 0
	}
	if progress > 100 {
		return 100
	}
	return progress
}

// KDRatio returns kills per death rounded to two decimals. A deathless
// player's ratio equals their kill count.
func KDRatio(kills, deaths int) float64 {
	if deaths == 0 {
		return float64(kills)
	}
	return math.Round(float64(kills)/float64(deaths)*100) / 100
}

// FKDRatio is KDRatio over final kills and final deaths.
func FKDRatio(finalKills, finalDeaths int) float64 {
	return KDRatio(finalKills, finalDeaths)
}

// WinRate returns the win percentage rounded to one decimal, or 0 when
// no games were played.
func WinRate(wins, gamesPlayed int) float64 {
	if gamesPlayed == 0 {
		return 0
	}
	return math.Round(float64(wins)/float64(gamesPlayed)*1000) / 10
}

// Stats is the subset of player counters the automatic experience
// formula reads.
type Stats struct {
	Kills          int
	FinalKills     int
	Deaths         int
	BedsBroken     int
	GamesPlayed    int
	Wins           int
	TotalResources int
}

// AutoExperience computes the experience a player's raw statistics are
// worth. The base value is a weighted sum of counters; performance
// multipliers for K/D, win rate and bed breaking are then applied in
// order, truncating to an integer after each stage.
func AutoExperience(s Stats) int {
	exp := s.Kills*15 +
		s.FinalKills*75 +
		s.BedsBroken*150 +
		s.Wins*300 +
		s.GamesPlayed*40 +
		s.TotalResources/8

	kd := KDRatio(s.Kills, s.Deaths)
	switch {
	case kd >= 3.0:
		exp = int(float64(exp) * 1.4)
	case kd >= 2.0:
		exp = int(float64(exp) * 1.25)
	case kd >= 1.5:
		exp = int(float64(exp) * 1.15)
	}

	winRate := WinRate(s.Wins, s.GamesPlayed)
	switch {
	case winRate >= 85:
		exp = int(float64(exp) * 1.5)
	case winRate >= 75:
		exp = int(float64(exp) * 1.35)
	case winRate >= 50:
		exp = int(float64(exp) * 1.2)
	}

	if s.GamesPlayed > 0 && float64(s.BedsBroken)/float64(s.GamesPlayed) >= 1.0 {
		exp = int(float64(exp) * 1.2)
	}

	return exp
}

// ExperienceFloor returns the experience a player should hold after a
// stat change: the automatic value acts as a floor, so stored experience
// never decreases when stats are corrected downward.
func ExperienceFloor(current int, s Stats) int {
	auto := AutoExperience(s)
	if auto > current {
		return auto
	}
	return current
}

// StarRating condenses a player's overall standing into a 1..5 score.
// Each component contributes a capped share of an internal 0..75 scale.
func StarRating(exp int, s Stats) int {
	score := math.Min(20, float64(Level(exp))*0.5) +
		math.Min(15, KDRatio(s.Kills, s.Deaths)*3) +
		math.Min(15, WinRate(s.Wins, s.GamesPlayed)*0.15) +
		math.Min(10, float64(s.BedsBroken)*0.1) +
		math.Min(10, float64(s.FinalKills)*0.05) +
		math.Min(5, float64(s.GamesPlayed)*0.01)

	rating := int(math.Round(score / 13))
	if rating < 1 {
		return 1
	}
	if rating > 5 {
		return 5
	}
	return rating
}
