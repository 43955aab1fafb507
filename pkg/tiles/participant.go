package tiles

import "time"

// Participant is one member of a voice/video room as the grid sees it.
type Participant struct {
	ID          string    `json:"id" yaml:"id" bson:"participant_id"`
	Name        string    `json:"name" yaml:"name" bson:"name"`
	Speaking    bool      `json:"speaking,omitempty" yaml:"speaking,omitempty" bson:"speaking"`
	CameraOn    bool      `json:"camera_on,omitempty" yaml:"camera_on,omitempty" bson:"camera_on"`
	ScreenShare bool      `json:"screen_share,omitempty" yaml:"screen_share,omitempty" bson:"screen_share"`
	Muted       bool      `json:"muted,omitempty" yaml:"muted,omitempty" bson:"muted"`
	JoinedAt    time.Time `json:"joined_at" yaml:"joined_at" bson:"joined_at"`
}

// Source names the video track a tile shows.
type Source string

const (
	SourceNone   Source = "none"
	SourceCamera Source = "camera"
	SourceScreen Source = "screen"
)

// VideoSource returns the track to display. Screen shares win over cameras.
func (p Participant) VideoSource() Source {
	switch {
	case p.ScreenShare:
		return SourceScreen
	case p.CameraOn:
		return SourceCamera
	default:
		return SourceNone
	}
}

// Label returns the display name, falling back to the ID.
func (p Participant) Label() string {
	if p.Name != "" {
		return p.Name
	}
	return p.ID
}
