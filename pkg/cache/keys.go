package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Keyer generates cache keys.
type Keyer interface {
	// LayoutKey returns the key for an arrangement computed from inputHash
	// (a hash of the participant list) and opts.
	LayoutKey(inputHash string, opts LayoutKeyOpts) string

	// ArtifactKey returns the key for a rendered artifact of a layout.
	ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string
}

// LayoutKeyOpts holds every layout input besides the participant list.
type LayoutKeyOpts struct {
	Count        int     `json:"count"`
	Width        float64 `json:"width"`
	Height       float64 `json:"height"`
	Gap          float64 `json:"gap"`
	Mode         string  `json:"mode"`
	MaxVisible   int     `json:"max_visible"`
	SpeakerIndex int     `json:"speaker_index"`
}

// ArtifactKeyOpts holds the render inputs.
type ArtifactKeyOpts struct {
	Format string `json:"format"`
	Style  string `json:"style"`
}

// DefaultKeyer produces keys of the form "kind:sha256(parts)".
type DefaultKeyer struct{}

// NewDefaultKeyer creates the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// LayoutKey implements Keyer.
func (DefaultKeyer) LayoutKey(inputHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", inputHash, opts)
}

// ArtifactKey implements Keyer.
func (DefaultKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return hashKey(fmt.Sprintf("artifact:%s", opts.Format), layoutHash, opts)
}

// Hash returns the hex SHA-256 digest of data. Participant lists and
// serialized layouts are hashed with it before they become key parts.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// hashKey returns "prefix:" followed by the digest of parts encoded as JSON.
func hashKey(prefix string, parts ...any) string {
	data, _ := json.Marshal(parts)
	return prefix + ":" + Hash(data)
}
