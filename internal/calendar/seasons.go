package calendar

// Season of the year. Boundaries are fixed by month.
type Season uint8

// Season constants.
const (
	SeasonSpring Season = iota
	SeasonSummer
	SeasonAutumn
	SeasonWinter
)

// AllSeasons lists seasons in calendar order starting from spring.
var AllSeasons = [4]Season{SeasonSpring, SeasonSummer, SeasonAutumn, SeasonWinter}

// SeasonOf maps a date to its season: months 2-4 spring, 5-7 summer,
// 8-10 autumn, 11, 0 and 1 winter.
func SeasonOf(d GameDate) Season {
	switch d.Month {
	case 2, 3, 4:
		return SeasonSpring
	case 5, 6, 7:
		return SeasonSummer
	case 8, 9, 10:
		return SeasonAutumn
	default:
		return SeasonWinter
	}
}

// SeasonName returns a human-readable season name.
func SeasonName(season Season) string {
	switch season {
	case SeasonSpring:
		return "Spring"
	case SeasonSummer:
		return "Summer"
	case SeasonAutumn:
		return "Autumn"
	case SeasonWinter:
		return "Winter"
	default:
		return "Unknown"
	}
}

func (s Season) String() string { return SeasonName(s) }

// ParseSeason accepts the lowercase or capitalised season name.
func ParseSeason(name string) (Season, bool) {
	switch name {
	case "spring", "Spring":
		return SeasonSpring, true
	case "summer", "Summer":
		return SeasonSummer, true
	case "autumn", "Autumn", "fall":
		return SeasonAutumn, true
	case "winter", "Winter":
		return SeasonWinter, true
	}
	return 0, false
}
