package calendar

import "fmt"

// GameDate is a calendar position. Month is 0-based, Day is 1-based.
type GameDate struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	Day   int `json:"day"`
}

// DaysToDate projects a day count onto the calendar. Negative counts clamp to day zero.
func DaysToDate(totalDays int) GameDate {
	if totalDays < 0 {
		totalDays = 0
	}
	remaining := totalDays % DaysPerYear
	return GameDate{
		Year:  totalDays / DaysPerYear,
		Month: remaining / DaysPerMonth,
		Day:   remaining%DaysPerMonth + 1,
	}
}

// TotalDays is the inverse of DaysToDate.
func (d GameDate) TotalDays() int {
	return d.Year*DaysPerYear + d.Month*DaysPerMonth + (d.Day - 1)
}

// Season returns the season the date falls in.
func (d GameDate) Season() Season {
	return SeasonOf(d)
}

// String renders the date for logs and notifications.
func (d GameDate) String() string {
	return FormatDate(d)
}

var monthNames = [MonthsPerYear]string{
	"Deepfrost", "Thaw", "Seedtime", "Rains", "Blossom", "Highsun",
	"Harvestmoon", "Goldleaf", "Reaping", "Fallow", "Frostfall", "Longnight",
}

// MonthName returns the English name of a 0-based month.
func MonthName(month int) string {
	if month < 0 || month >= MonthsPerYear {
		return "Unknown"
	}
	return monthNames[month]
}

// FormatDate renders a date as e.g. "Day 12 of Rains, Year 1 (Spring)".
// Years are shown 1-based.
func FormatDate(d GameDate) string {
	return fmt.Sprintf("Day %d of %s, Year %d (%s)",
		d.Day, MonthName(d.Month), d.Year+1, SeasonName(SeasonOf(d)))
}
