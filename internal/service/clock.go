package service

import (
	"time"

	"github.com/noah-isme/sma-portal-api/internal/models"
)

// Clock supplies the current time; tests inject a fixed one.
type Clock func() time.Time

// SystemClock reads the wall clock.
func SystemClock() time.Time { return time.Now() }

func (c Clock) today() models.Date {
	if c == nil {
		return models.DateOf(time.Now())
	}
	return models.DateOf(c())
}
