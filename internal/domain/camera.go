package domain

import (
	"encoding/json"
	"net/url"
	"strings"
	"time"
)

// CameraStatus is the exclusivity state of a camera.
type CameraStatus string

const (
	CameraAvailable CameraStatus = "available"
	CameraInUse     CameraStatus = "in_use"
)

// IsValid checks if the status is a known camera status.
func (s CameraStatus) IsValid() bool {
	return s == CameraAvailable || s == CameraInUse
}

// LoginMethod describes how a camera's source URL is built.
type LoginMethod string

const (
	LoginURL      LoginMethod = "url"
	LoginUserPass LoginMethod = "userpass"
)

// ProtocolRTSP is the pull-only camera protocol that must be transcoded before browsers can play it.
const ProtocolRTSP = "rtsp"

// Camera is a configured video source with an exclusivity status.
type Camera struct {
	ID                int64        `json:"id"`
	Label             string       `json:"label"`
	IPAddress         string       `json:"ip_address"`
	Port              int          `json:"port"`
	Protocol          string       `json:"protocol"`
	StreamURL         string       `json:"stream_url,omitempty"`
	Username          string       `json:"-"`
	PasswordEncrypted string       `json:"-"`
	BranchID          int64        `json:"branch_id"`
	BayZone           string       `json:"bay_zone,omitempty"`
	Model             string       `json:"model,omitempty"`
	Notes             string       `json:"notes,omitempty"`
	Status            CameraStatus `json:"status"`
	LoginMethod       LoginMethod  `json:"login_method"`
	CreatedAt         time.Time    `json:"created_at"`
	UpdatedAt         time.Time    `json:"updated_at"`
}

// MarshalJSON hides any password embedded in the direct stream URL.
func (c Camera) MarshalJSON() ([]byte, error) {
	type plain Camera
	out := plain(c)
	out.StreamURL = RedactURL(c.StreamURL)
	return json.Marshal(out)
}

// RedactURL hides the password of a URL for logs and API responses.
func RedactURL(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "<unparseable url>"
	}
	return u.Redacted()
}

// NormalizedProtocol returns the lower-cased protocol scheme.
func (c *Camera) NormalizedProtocol() string {
	return strings.ToLower(strings.TrimSpace(c.Protocol))
}

// HasCredentials reports whether username/password login data is present.
func (c *Camera) HasCredentials() bool {
	return c.Username != "" && c.PasswordEncrypted != ""
}

// CreateCameraRequest is the administrative payload for registering a camera.
type CreateCameraRequest struct {
	Label       string      `json:"label"`
	IPAddress   string      `json:"ip_address"`
	Port        int         `json:"port"`
	Protocol    string      `json:"protocol"`
	StreamURL   string      `json:"stream_url"`
	Username    string      `json:"username"`
	Password    string      `json:"password"`
	BranchID    int64       `json:"branch_id"`
	BayZone     string      `json:"bay_zone"`
	Model       string      `json:"model"`
	Notes       string      `json:"notes"`
	LoginMethod LoginMethod `json:"login_method"`
}

// StreamResponse is returned by the authenticated stream endpoint.
type StreamResponse struct {
	StreamURL string `json:"streamUrl"`
}
