package models

import "time"

// Upload intervals selectable by a user, in hours.
var AllowedIntervals = []int{1, 3, 5, 7, 9, 11}

// DefaultIntervalHours is assigned to newly created users.
const DefaultIntervalHours = 3

// ValidInterval reports whether h is a selectable upload interval.
func ValidInterval(h int) bool {
	for _, v := range AllowedIntervals {
		if v == h {
			return true
		}
	}
	return false
}

// User represents a user in the system
type User struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Code          string     `json:"code"`
	Token         string     `json:"token,omitempty"`
	PartnerID     *string    `json:"partner_id,omitempty"`
	Awake         bool       `json:"awake"`
	LastUploadAt  *time.Time `json:"last_upload_at,omitempty"`
	IntervalHours int        `json:"interval_hours"`
	TOSAccepted   bool       `json:"tos_accepted"`
	PushToken     *string    `json:"-"`
	CreatedAt     time.Time  `json:"created_at"`
}

// Photo represents a photo-and-caption update posted by a user
type Photo struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	S3Key     string    `json:"-"`
	S3URL     string    `json:"s3_url"`
	Caption   string    `json:"caption"`
	TakenAt   time.Time `json:"taken_at"`
	CreatedAt time.Time `json:"created_at"`
}

// Note represents an entry on the shared note board of a matched pair
type Note struct {
	ID        string    `json:"id"`
	PairKey   string    `json:"pair_key"`
	AuthorID  string    `json:"author_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}
