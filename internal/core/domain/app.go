package domain

import (
	"fmt"
	"strings"
)

// ContainerPrefix is prepended to the slug to form the container name.
const ContainerPrefix = "vue-"

// StreamDone is the last line published on a log stream before it closes.
const StreamDone = "[DONE]"

// ProvisionRequest describes one pipeline run for a tenant app.
type ProvisionRequest struct {
	Name     string
	Port     int
	StreamID string
	TenantID string
}

// Result is returned by both provisioning pipelines.
type Result struct {
	Image     string `json:"image"`
	Container string `json:"container"`
	URL       string `json:"url"`
	Log       string `json:"logs"`
}

// SafeSlug sanitizes an app name into a filesystem and container safe
// identifier. Every character outside [a-zA-Z0-9-_] becomes '-', then the
// result is lowercased.
func SafeSlug(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + ('a' - 'A'))
		default:
			b.WriteByte('-')
		}
	}
	return b.String()
}

// ContainerName derives the container name for a slug.
func ContainerName(slug string) string {
	return ContainerPrefix + slug
}

// ImageTag derives the image tag for a slug.
func ImageTag(prefix, slug string) string {
	return prefix + slug + ":latest"
}

// AppURL is the address the app is published on.
func AppURL(host string, port int) string {
	return fmt.Sprintf("http://%s:%d", host, port)
}
