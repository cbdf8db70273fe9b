package repository

import (
	"encoding/base64"
	"time"
)

const (
	timeFormat = "2006-01-02T15:04:05.999Z07:00" // reduced precision

	defaultPageNum = 10
	pageMinNum     = 1
	pageMaxNum     = 100
)

// EncodeCursor will encode the created_at watermark into an opaque cursor
func EncodeCursor(t time.Time) string {
	timeString := t.Format(timeFormat)
	return base64.StdEncoding.EncodeToString([]byte(timeString))
}

// DecodeCursor will decode the cursor back into a time.Time
func DecodeCursor(encodedTime string) (time.Time, error) {
	byt, err := base64.StdEncoding.DecodeString(encodedTime)
	if err != nil {
		return time.Time{}, err
	}

	timeString := string(byt)
	t, err := time.Parse(timeFormat, timeString)
	return t, err
}

// PageVerify clamps a page size into a sane range in place
func PageVerify(num *int64) {
	if *num <= 0 {
		*num = defaultPageNum
		return
	}
	if *num < pageMinNum {
		*num = pageMinNum
	}
	if *num > pageMaxNum {
		*num = pageMaxNum
	}
}
