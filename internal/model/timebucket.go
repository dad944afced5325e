package model

import (
	"fmt"
	"time"
)

// timeBucketLayout is minute precision: yyyyMMddHHmm.
const timeBucketLayout = "200601021504"

// TimeBucket returns the minute time bucket for t, in UTC.
func TimeBucket(t time.Time) int64 {
	u := t.UTC()
	return int64(u.Year())*100000000 +
		int64(u.Month())*1000000 +
		int64(u.Day())*10000 +
		int64(u.Hour())*100 +
		int64(u.Minute())
}

// TimeBucketTime parses a minute time bucket back into a UTC time.
func TimeBucketTime(bucket int64) (time.Time, error) {
	t, err := time.Parse(timeBucketLayout, fmt.Sprintf("%012d", bucket))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time bucket %d: %w", bucket, err)
	}
	return t, nil
}
