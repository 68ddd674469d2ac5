package types

import "time"

type Interval string

const (
	Day     Interval = "D"
	Week    Interval = "W"
	Month   Interval = "M"
	Quarter Interval = "Q"
	Year    Interval = "Y"
)

// IntervalToTime holds nominal durations; months and longer are approximated in days.
var IntervalToTime = map[Interval]time.Duration{
	Day:     time.Hour * 24,
	Week:    time.Hour * 24 * 7,
	Month:   time.Hour * 24 * 30,
	Quarter: time.Hour * 24 * 91,
	Year:    time.Hour * 24 * 365,
}

var ConvertInterval = map[string]Interval{
	"D": Day,
	"W": Week,
	"M": Month,
	"Q": Quarter,
	"Y": Year,
}
