package jsscript

import (
	"time"
)

// Date stores its timestamp as milliseconds since epoch, like real JS,
// but is always constructed from explicit arguments or the scheduler's
// virtual clock rather than the Go wall clock — scripts never observe
// real time, matching the deterministic-run design the rest of the
// engine follows.
func installDateCtor(g *environment) {
	ctor := newNativeFunction("Date", func(ip *Interp, this Value, args []Value) (Value, error) {
		args, _ = isConstructCall(args)
		o := newObject("Date")
		o.proto = dateProto
		switch len(args) {
		case 0:
			o.timestamp = float64(ip.sched.Now())
		case 1:
			if args[0].IsString() {
				o.timestamp = float64(parseDate(args[0].s))
			} else {
				o.timestamp = args[0].ToFloat()
			}
		default:
			y := int(args[0].ToFloat())
			mo := 0
			if len(args) > 1 {
				mo = int(args[1].ToFloat())
			}
			d := 1
			if len(args) > 2 {
				d = int(args[2].ToFloat())
			}
			h, mi, s, ms := 0, 0, 0, 0
			if len(args) > 3 {
				h = int(args[3].ToFloat())
			}
			if len(args) > 4 {
				mi = int(args[4].ToFloat())
			}
			if len(args) > 5 {
				s = int(args[5].ToFloat())
			}
			if len(args) > 6 {
				ms = int(args[6].ToFloat())
			}
			t := time.Date(y, time.Month(mo+1), d, h, mi, s, ms*1e6, time.UTC)
			o.timestamp = float64(t.UnixMilli())
		}
		return Object(o), nil
	})
	ctor.obj.set("now", newNativeFunction("now", func(ip *Interp, this Value, args []Value) (Value, error) {
		return Number(float64(ip.sched.Now())), nil
	}))
	ctor.obj.set("parse", newNativeFunction("parse", func(ip *Interp, this Value, args []Value) (Value, error) {
		return Number(float64(parseDate(arg(args, 0).String()))), nil
	}))
	g.vars["Date"] = ctor
	registerDateMethods()
}

var dateProto = newObject("Object")

func registerDateMethods() {
	m := func(name string, fn func(ip *Interp, this Value, args []Value) (Value, error)) {
		dateProto.set(name, newNativeFunction(name, fn))
	}
	toTime := func(o *object) time.Time { return time.UnixMilli(int64(o.timestamp)).UTC() }
	m("getTime", func(ip *Interp, this Value, args []Value) (Value, error) {
		return Number(this.obj.timestamp), nil
	})
	m("valueOf", func(ip *Interp, this Value, args []Value) (Value, error) {
		return Number(this.obj.timestamp), nil
	})
	m("getFullYear", func(ip *Interp, this Value, args []Value) (Value, error) {
		return Number(float64(toTime(this.obj).Year())), nil
	})
	m("getMonth", func(ip *Interp, this Value, args []Value) (Value, error) {
		return Number(float64(int(toTime(this.obj).Month()) - 1)), nil
	})
	m("getDate", func(ip *Interp, this Value, args []Value) (Value, error) {
		return Number(float64(toTime(this.obj).Day())), nil
	})
	m("getDay", func(ip *Interp, this Value, args []Value) (Value, error) {
		return Number(float64(int(toTime(this.obj).Weekday()))), nil
	})
	m("getHours", func(ip *Interp, this Value, args []Value) (Value, error) {
		return Number(float64(toTime(this.obj).Hour())), nil
	})
	m("getMinutes", func(ip *Interp, this Value, args []Value) (Value, error) {
		return Number(float64(toTime(this.obj).Minute())), nil
	})
	m("getSeconds", func(ip *Interp, this Value, args []Value) (Value, error) {
		return Number(float64(toTime(this.obj).Second())), nil
	})
	m("getMilliseconds", func(ip *Interp, this Value, args []Value) (Value, error) {
		return Number(float64(toTime(this.obj).Nanosecond() / 1e6)), nil
	})
	m("setFullYear", func(ip *Interp, this Value, args []Value) (Value, error) {
		t := toTime(this.obj)
		y := int(arg(args, 0).ToFloat())
		nt := time.Date(y, t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
		this.obj.timestamp = float64(nt.UnixMilli())
		return Number(this.obj.timestamp), nil
	})
	m("setTime", func(ip *Interp, this Value, args []Value) (Value, error) {
		this.obj.timestamp = arg(args, 0).ToFloat()
		return Number(this.obj.timestamp), nil
	})
	m("toISOString", func(ip *Interp, this Value, args []Value) (Value, error) {
		return String(toTime(this.obj).Format("2006-01-02T15:04:05.000Z")), nil
	})
	m("toString", func(ip *Interp, this Value, args []Value) (Value, error) {
		return String(formatDate(this.obj.timestamp)), nil
	})
	m("toDateString", func(ip *Interp, this Value, args []Value) (Value, error) {
		return String(toTime(this.obj).Format("Mon Jan 02 2006")), nil
	})
	m("toJSON", func(ip *Interp, this Value, args []Value) (Value, error) {
		return String(toTime(this.obj).Format("2006-01-02T15:04:05.000Z")), nil
	})
}

func formatDate(ms float64) string {
	return time.UnixMilli(int64(ms)).UTC().Format("Mon Jan 02 2006 15:04:05 GMT+0000")
}

func parseDate(s string) int64 {
	layouts := []string{
		time.RFC3339,
		"2006-01-02T15:04:05.000Z",
		"2006-01-02T15:04:05Z",
		"2006-01-02",
		"Mon Jan 02 2006 15:04:05 GMT+0000",
	}
	for _, l := range layouts {
		if t, err := time.Parse(l, s); err == nil {
			return t.UnixMilli()
		}
	}
	return 0
}
