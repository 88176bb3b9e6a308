package instance

import (
	"regexp"
	"strconv"
	"strings"

	"dategen/internal/candidate"
)

var (
	dayFirstPattern  = regexp.MustCompile(`^\d{2}/\d{2}/\d{4}$`)
	yearFirstPattern = regexp.MustCompile(`^\d{4}/\d{2}/\d{2}$`)
)

// IsLeapYear applies the Gregorian century rule.
func IsLeapYear(year int) bool {
	return (year%4 == 0 && year%100 != 0) || year%400 == 0
}

// IsValidDate validates a DD/MM/YYYY string including leap years.
func IsValidDate(date string) bool {
	day, month, year, ok := splitDayFirst(date)
	if !ok {
		return false
	}
	return validCalendarDate(day, month, year, true)
}

// ValidateDayFirst adapts IsValidDate to the candidate validator shape.
func ValidateDayFirst(date string, _ candidate.Format) bool {
	return IsValidDate(date)
}

// ValidateBasic is the simplified routine that ignores leap years.
func ValidateBasic(date string, _ candidate.Format) bool {
	day, month, year, ok := splitDayFirst(date)
	if !ok {
		return false
	}
	return validCalendarDate(day, month, year, false)
}

// ValidateFormatted validates a date string in the given layout.
func ValidateFormatted(date string, format candidate.Format) bool {
	switch format {
	case candidate.FormatDMY:
		return IsValidDate(date)
	case candidate.FormatMDY:
		if !dayFirstPattern.MatchString(date) {
			return false
		}
		parts := strings.Split(date, "/")
		month, _ := strconv.Atoi(parts[0])
		day, _ := strconv.Atoi(parts[1])
		year, _ := strconv.Atoi(parts[2])
		return IsValidDate(candidate.Genes{Day: day, Month: month, Year: year}.Canonical())
	case candidate.FormatYMD:
		if !yearFirstPattern.MatchString(date) {
			return false
		}
		parts := strings.Split(date, "/")
		year, _ := strconv.Atoi(parts[0])
		month, _ := strconv.Atoi(parts[1])
		day, _ := strconv.Atoi(parts[2])
		return IsValidDate(candidate.Genes{Day: day, Month: month, Year: year}.Canonical())
	default:
		return false
	}
}

func splitDayFirst(date string) (day, month, year int, ok bool) {
	if !dayFirstPattern.MatchString(date) {
		return 0, 0, 0, false
	}
	parts := strings.Split(date, "/")
	day, _ = strconv.Atoi(parts[0])
	month, _ = strconv.Atoi(parts[1])
	year, _ = strconv.Atoi(parts[2])
	return day, month, year, true
}

func validCalendarDate(day, month, year int, checkLeap bool) bool {
	if year < 0 || year > 9999 || month < 1 || month > 12 || day < 1 {
		return false
	}
	switch {
	case month == 4 || month == 6 || month == 9 || month == 11:
		return day <= 30
	case month == 2 && checkLeap:
		maxDay := 28
		if IsLeapYear(year) {
			maxDay = 29
		}
		return day <= maxDay
	default:
		return day <= 31
	}
}
