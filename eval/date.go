package eval

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"github.com/robfig/bracket/data"
)

// timestamp interprets value as a point in time: numbers and integer strings
// are Unix seconds, "now" is the evaluator's clock, and anything else is
// handed to dateparse in the evaluator's location.
func (ev *Evaluator) timestamp(value data.Value) (time.Time, bool) {
	var loc = ev.Location
	if loc == nil {
		loc = time.Local
	}
	switch v := value.(type) {
	case data.Int:
		return time.Unix(int64(v), 0).In(loc), true
	case data.Float:
		sec, frac := math.Modf(float64(v))
		return time.Unix(int64(sec), int64(frac*1e9)).In(loc), true
	}

	var str = strings.TrimSpace(value.String())
	switch {
	case str == "":
		return time.Time{}, false
	case strings.EqualFold(str, "now"):
		return ev.now().In(loc), true
	}
	if sec, err := strconv.ParseInt(str, 10, 64); err == nil {
		return time.Unix(sec, 0).In(loc), true
	}
	t, err := dateparse.ParseIn(str, loc)
	if err != nil {
		return time.Time{}, false
	}
	return t.In(loc), true
}

func (ev *Evaluator) now() time.Time {
	if ev.Now == nil {
		return time.Now()
	}
	return ev.Now()
}

// FormatDate formats t using date() style format letters, for example
// "Y-m-d H:i:s" or "D, d M Y".  A backslash makes the next character literal
// and unknown letters are copied through.
func FormatDate(t time.Time, format string) string {
	var b strings.Builder
	for i := 0; i < len(format); i++ {
		var c = format[i]
		switch c {
		// day
		case 'd':
			b.WriteString(t.Format("02"))
		case 'D':
			b.WriteString(t.Format("Mon"))
		case 'j':
			b.WriteString(strconv.Itoa(t.Day()))
		case 'l':
			b.WriteString(t.Weekday().String())
		case 'N':
			var wd = int(t.Weekday())
			if wd == 0 {
				wd = 7
			}
			b.WriteString(strconv.Itoa(wd))
		case 'S':
			b.WriteString(ordinalSuffix(t.Day()))
		case 'w':
			b.WriteString(strconv.Itoa(int(t.Weekday())))
		case 'z':
			b.WriteString(strconv.Itoa(t.YearDay() - 1))

		// week
		case 'W':
			_, week := t.ISOWeek()
			b.WriteString(pad2(week))

		// month
		case 'F':
			b.WriteString(t.Month().String())
		case 'm':
			b.WriteString(t.Format("01"))
		case 'M':
			b.WriteString(t.Format("Jan"))
		case 'n':
			b.WriteString(strconv.Itoa(int(t.Month())))
		case 't':
			b.WriteString(strconv.Itoa(daysIn(t)))

		// year
		case 'L':
			if daysInYear(t.Year()) == 366 {
				b.WriteByte('1')
			} else {
				b.WriteByte('0')
			}
		case 'o':
			year, _ := t.ISOWeek()
			b.WriteString(strconv.Itoa(year))
		case 'Y':
			b.WriteString(strconv.Itoa(t.Year()))
		case 'y':
			b.WriteString(t.Format("06"))

		// time
		case 'a':
			b.WriteString(t.Format("pm"))
		case 'A':
			b.WriteString(t.Format("PM"))
		case 'g':
			b.WriteString(t.Format("3"))
		case 'G':
			b.WriteString(strconv.Itoa(t.Hour()))
		case 'h':
			b.WriteString(t.Format("03"))
		case 'H':
			b.WriteString(t.Format("15"))
		case 'i':
			b.WriteString(t.Format("04"))
		case 's':
			b.WriteString(t.Format("05"))
		case 'u':
			b.WriteString(t.Format(".000000")[1:])
		case 'v':
			b.WriteString(t.Format(".000")[1:])

		// timezone
		case 'e':
			b.WriteString(t.Location().String())
		case 'I':
			if t.IsDST() {
				b.WriteByte('1')
			} else {
				b.WriteByte('0')
			}
		case 'O':
			b.WriteString(t.Format("-0700"))
		case 'P':
			b.WriteString(t.Format("-07:00"))
		case 'T':
			b.WriteString(t.Format("MST"))
		case 'Z':
			_, offset := t.Zone()
			b.WriteString(strconv.Itoa(offset))

		// full date/time
		case 'c':
			b.WriteString(t.Format("2006-01-02T15:04:05-07:00"))
		case 'r':
			b.WriteString(t.Format("Mon, 02 Jan 2006 15:04:05 -0700"))
		case 'U':
			b.WriteString(strconv.FormatInt(t.Unix(), 10))

		case '\\':
			if i+1 < len(format) {
				i++
				b.WriteByte(format[i])
			}
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

func ordinalSuffix(day int) string {
	if day >= 11 && day <= 13 {
		return "th"
	}
	switch day % 10 {
	case 1:
		return "st"
	case 2:
		return "nd"
	case 3:
		return "rd"
	}
	return "th"
}

func pad2(n int) string {
	if n < 10 {
		return "0" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}

func daysIn(t time.Time) int {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func daysInYear(year int) int {
	return time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC).YearDay()
}
