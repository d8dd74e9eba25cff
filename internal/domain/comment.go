package domain

import "time"

// Comment is a user comment on a movie. CreatedDate carries a calendar date at
// midnight UTC.
type Comment struct {
	ID          int64
	MovieID     int64
	Text        string
	CreatedDate time.Time
}
