package upload

import "strconv"

// Deployment identifies the hosting environment the gate enforces limits for.
type Deployment int

const (
	// Conventional is a long-running host where the upload ceiling is
	// configurable.
	Conventional Deployment = iota

	// Serverless is a function host with a fixed request-body ceiling that
	// configuration cannot raise.
	Serverless
)

// String returns the deployment name.
func (d Deployment) String() string {
	switch d {
	case Serverless:
		return "serverless"
	default:
		return "conventional"
	}
}

const (
	// DefaultMaxFileSizeMB is the ceiling used on conventional hosts when
	// none is configured.
	DefaultMaxFileSizeMB = 25

	// ServerlessMaxFileSizeMB is the ceiling enforced by the serverless host.
	ServerlessMaxFileSizeMB = 4

	serverlessLabel = "4MB (Vercel)"
)

// Limit is a resolved maximum file size.
type Limit struct {
	// Bytes is the largest file size accepted.
	Bytes int64

	// Label is the human-readable form used in error messages.
	Label string
}

// ResolveLimit returns the effective file size limit for a deployment.
//
// On serverless hosts the configured value is ignored and the platform
// ceiling is reported, so error messages name a limit that is actually
// enforced. Elsewhere configuredMB is used, falling back to
// DefaultMaxFileSizeMB when it is not positive.
func ResolveLimit(d Deployment, configuredMB int) Limit {
	if d == Serverless {
		return Limit{
			Bytes: ServerlessMaxFileSizeMB << 20,
			Label: serverlessLabel,
		}
	}

	mb := configuredMB
	if mb <= 0 {
		mb = DefaultMaxFileSizeMB
	}
	return Limit{
		Bytes: int64(mb) << 20,
		Label: strconv.Itoa(mb) + "MB",
	}
}

// TooLargeMessage is the message reported when a file exceeds l.
func (l Limit) TooLargeMessage() string {
	return "File too large. Maximum " + l.Label + " allowed."
}
