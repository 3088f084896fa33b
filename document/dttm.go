package document

import "time"

// DTTM is the format's packed date/time encoding with minute granularity:
// minute in bits 0-5, hour in 6-10, day of month in 11-15, month in 16-19,
// years since 1900 in 20-28. A value of 0 means "no timestamp".
//
// DecodeDTTM converts a packed value to a time.Time in UTC. The zero value
// and values with an out-of-range month or day decode to the zero time.
func DecodeDTTM(v int64) time.Time {
	if v <= 0 {
		return time.Time{}
	}
	minute := int(v & 0x3f)
	hour := int((v >> 6) & 0x1f)
	day := int((v >> 11) & 0x1f)
	month := int((v >> 16) & 0x0f)
	year := int((v>>20)&0x1ff) + 1900

	if month < 1 || month > 12 || day < 1 || day > 31 || hour > 23 || minute > 59 {
		return time.Time{}
	}
	return time.Date(year, time.Month(month), day, hour, minute, 0, 0, time.UTC)
}

// EncodeDTTM packs a time.Time into the DTTM representation. Times before
// 1900 encode to 0.
func EncodeDTTM(t time.Time) int64 {
	if t.IsZero() || t.Year() < 1900 {
		return 0
	}
	t = t.UTC()
	return int64(t.Minute()) |
		int64(t.Hour())<<6 |
		int64(t.Day())<<11 |
		int64(t.Month())<<16 |
		int64(t.Year()-1900)<<20
}
