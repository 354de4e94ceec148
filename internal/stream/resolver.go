package stream

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/Harsh-BH/baywatch/internal/domain"
)

// PasswordOpener decrypts a stored camera password.
type PasswordOpener interface {
	Open(sealed string) (string, error)
}

// ManifestLocator maps a camera to the client-facing path of its transcoded manifest.
type ManifestLocator interface {
	ManifestURL(cameraID int64) string
}

// Resolution is the outcome of resolving a camera's viewing URL.
type Resolution struct {
	// ClientURL is the only URL that may be handed to a viewer.
	ClientURL string
	// SourceURL is the real camera URL, possibly with credentials. Never expose or log it.
	SourceURL string
	// Transcoded is set when ClientURL points at supervisor output that requires
	// Supervisor.Start(cameraID, SourceURL).
	Transcoded bool
}

// Resolver computes the URL handed to a viewer for a camera.
type Resolver struct {
	passwords PasswordOpener
	manifests ManifestLocator
}

// NewResolver creates a Resolver.
func NewResolver(passwords PasswordOpener, manifests ManifestLocator) *Resolver {
	return &Resolver{
		passwords: passwords,
		manifests: manifests,
	}
}

// Resolve returns the direct stream URL when configured, otherwise composes
// protocol://[user:pass@]host:port. RTSP sources are swapped for the transcoded manifest.
func (r *Resolver) Resolve(c *domain.Camera) (*Resolution, error) {
	source, err := r.sourceURL(c)
	if err != nil {
		return nil, err
	}

	if !isPullOnly(c, source) {
		return &Resolution{ClientURL: source, SourceURL: source}, nil
	}
	return &Resolution{
		ClientURL:  r.manifests.ManifestURL(c.ID),
		SourceURL:  source,
		Transcoded: true,
	}, nil
}

func (r *Resolver) sourceURL(c *domain.Camera) (string, error) {
	if c.StreamURL != "" {
		return c.StreamURL, nil
	}

	host := c.IPAddress
	if c.Port > 0 {
		host = net.JoinHostPort(c.IPAddress, strconv.Itoa(c.Port))
	}
	u := &url.URL{Scheme: c.NormalizedProtocol(), Host: host}

	if c.HasCredentials() {
		password, err := r.passwords.Open(c.PasswordEncrypted)
		if err != nil {
			return "", fmt.Errorf("open camera %d credentials: %w", c.ID, err)
		}
		if password != "" {
			u.User = url.UserPassword(c.Username, password)
		}
	}
	return u.String(), nil
}

// isPullOnly reports whether the source needs transcoding before a browser can play it.
func isPullOnly(c *domain.Camera, source string) bool {
	if c.NormalizedProtocol() == domain.ProtocolRTSP {
		return true
	}
	u, err := url.Parse(source)
	if err != nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return scheme == "rtsp" || scheme == "rtsps"
}

// RedactURL hides the password of a URL for logging.
func RedactURL(raw string) string {
	return domain.RedactURL(raw)
}

// newRedactor replaces the raw source URL and its password in transcoder output.
func newRedactor(source string) *strings.Replacer {
	pairs := []string{source, RedactURL(source)}
	if u, err := url.Parse(source); err == nil && u.User != nil {
		if password, ok := u.User.Password(); ok && password != "" {
			pairs = append(pairs, password, "xxxxx")
			if escaped := url.QueryEscape(password); escaped != password {
				pairs = append(pairs, escaped, "xxxxx")
			}
		}
	}
	return strings.NewReplacer(pairs...)
}
