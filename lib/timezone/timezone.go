package timezone

import "time"

var Location = time.Local

// Set overrides the location used for date arithmetic. Portals render
// dates in the school's local timezone, which may not match wherever the
// server happens to run, which causes off-by-one-day problems when
// comparing against <time.Time>.Year()/Month()/Day().
func Set(name string) error {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return err
	}
	Location = loc
	return nil
}

func Now() time.Time {
	return time.Now().In(Location)
}
