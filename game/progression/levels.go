package progression

// levelThresholds holds the cumulative experience required to reach each
// of the first 100 levels. Index 0 is level 1 (0 XP); index 99 is level
// 100 (13,117,500 XP). These are fixed game-balance constants and must
// not be regenerated from a formula.
var levelThresholds = [100]int{
	0, 10000, 22500, 37500, 55000, 75000, 97500, 122500, 150000, 180000,
	212500, 247500, 285000, 325000, 367500, 412500, 460000, 510000, 562500, 617500,
	675000, 735000, 797500, 862500, 930000, 1000000, 1072500, 1147500, 1225000, 1305000,
	1387500, 1472500, 1560000, 1650000, 1742500, 1837500, 1935000, 2035000, 2137500, 2242500,
	2350000, 2460000, 2572500, 2687500, 2805000, 2925000, 3047500, 3172500, 3300000, 3430000,
	3562500, 3697500, 3835000, 3975000, 4117500, 4262500, 4410000, 4560000, 4712500, 4867500,
	5025000, 5185000, 5347500, 5512500, 5680000, 5850000, 6022500, 6197500, 6375000, 6555000,
	6737500, 6922500, 7110000, 7300000, 7492500, 7687500, 7885000, 8085000, 8287500, 8492500,
	8700000, 8910000, 9122500, 9337500, 9555000, 9775000, 9997500, 10222500, 10450000, 10680000,
	10912500, 11147500, 11385000, 11625000, 11867500, 12112500, 12360000, 12610000, 12862500, 13117500,
}

const (
	// maxTableXP is the lower bound of level 100, the last tabulated level.
	maxTableXP = 13117500
	// xpPerPrestigeLevel is the flat cost of each level past 100.
	xpPerPrestigeLevel = 2500
	// MaxLevel caps progression.
	MaxLevel = 1000
)
