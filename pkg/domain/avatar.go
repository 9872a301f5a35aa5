package domain

type ImageStatus string

const (
	ImageStatusPending ImageStatus = "pending"
	ImageStatusReady   ImageStatus = "ready"
	ImageStatusFailed  ImageStatus = "failed"
)

// Terminal reports whether the status admits no further transition.
func (s ImageStatus) Terminal() bool {
	return s == ImageStatusReady || s == ImageStatusFailed
}

// Avatar is an AI persona with generation attributes and an asynchronously
// produced portrait. A freshly created avatar is pending with an empty
// ImageURL; the URL becomes non-empty exactly when the status turns ready.
type Avatar struct {
	ID          int64
	Name        string
	Personality string
	Features    string
	Age         int
	Gender      string
	Hobbies     string
	ImageURL    string
	ImageStatus ImageStatus
	IsSystem    bool
}

// AvatarDraft holds the generation inputs for a new avatar.
type AvatarDraft struct {
	Name        string
	Personality string
	Features    string
	Age         int
	Gender      string
	Hobbies     string
}
