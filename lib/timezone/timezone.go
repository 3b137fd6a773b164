package timezone

import "time"

var Location *time.Location

func init() {
	var err error
	Location, err = time.LoadLocation("Asia/Tokyo")
	if err != nil {
		panic(err)
	}
}

// force the clock into JST regardless of where the process runs; the
// portal renders dates in Japanese local time and the day cursor
// arithmetic relies on <time.Time>.Year()/Month()/Day() agreeing with it
func Now() time.Time {
	return time.Now().In(Location)
}
