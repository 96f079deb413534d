// Package photocheck decides whether a proof photo was taken today, based on
// the capture timestamp embedded in its EXIF metadata.
package photocheck

import (
	"bytes"
	"fmt"
	"time"

	"chorebot-api/internal/common"

	"github.com/rwcarlsen/goexif/exif"
)

// DefaultTimezone interprets capture timestamps when none is configured.
const DefaultTimezone = "Europe/Kyiv"

// captureLayout is the fixed EXIF timestamp pattern. Anything that deviates
// is unparseable, not a partial match.
const captureLayout = "2006:01:02 15:04:05"

// metadata carries the two timestamp tags the check cares about, in
// preference order.
type metadata struct {
	DateTimeOriginal string
	DateTime         string
}

type decodeFunc func(photo []byte) (*metadata, error)

// Validator classifies an image's capture date against today's date in a
// fixed timezone. It performs no I/O and never returns an error: every
// failure mode degrades to a negative verdict with an explanation.
type Validator struct {
	loc    *time.Location
	clock  common.Clock
	decode decodeFunc
}

// NewValidator creates a Validator for the given IANA timezone name. An
// empty name falls back to DefaultTimezone.
func NewValidator(timezone string, clock common.Clock) (*Validator, error) {
	if timezone == "" {
		timezone = DefaultTimezone
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone %q: %w", timezone, err)
	}
	return &Validator{loc: loc, clock: clock, decode: decodeEXIF}, nil
}

// FromToday reports whether the photo's capture date equals today's calendar
// date in the configured timezone, along with a human-readable explanation.
func (v *Validator) FromToday(photo []byte) (bool, string) {
	meta, err := v.decode(photo)
	if err != nil {
		return false, fmt.Sprintf("Не вдалося відкрити фото: %v", err)
	}

	raw := meta.DateTimeOriginal
	if raw == "" {
		raw = meta.DateTime
	}
	if raw == "" {
		return false, "EXIF-дані не містять дати зйомки."
	}

	captured, err := time.ParseInLocation(captureLayout, raw, v.loc)
	if err != nil {
		return false, fmt.Sprintf("Не вдалося розпізнати дату: %v", err)
	}

	now := v.clock.Now().In(v.loc)
	fromToday := captured.Year() == now.Year() && captured.YearDay() == now.YearDay()

	return fromToday, fmt.Sprintf("Фото зроблено: %s", captured.Format("2006-01-02 15:04:05"))
}

// decodeEXIF pulls the capture timestamp tags out of raw image bytes.
func decodeEXIF(photo []byte) (*metadata, error) {
	x, err := exif.Decode(bytes.NewReader(photo))
	if err != nil {
		return nil, err
	}

	meta := &metadata{}
	if tag, err := x.Get(exif.DateTimeOriginal); err == nil {
		if s, err := tag.StringVal(); err == nil {
			meta.DateTimeOriginal = s
		}
	}
	if tag, err := x.Get(exif.DateTime); err == nil {
		if s, err := tag.StringVal(); err == nil {
			meta.DateTime = s
		}
	}
	return meta, nil
}
