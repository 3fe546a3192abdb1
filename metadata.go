package eventsink

import (
	"os"
	"strings"
)

// Metadata holds the process-lifetime values attached to every record.
//
// A Metadata is built once by NewMetadata and never modified afterwards, so it can
// be shared by any number of goroutines without locking.
type Metadata struct {
	roleInstance  string
	tenant        string
	sourceMoniker string
	pid           int
}

// NewMetadata derives the record metadata from the deployment identity.
//
// Parameters:
//   - containerName: name of the hosting container, exposed as "App-<containerName>"
//   - tenant: tenant identifier, passed through unchanged
//   - stampName: deployment stamp; may be empty
//
// The process identifier is read once here and cached.
//
// Example:
//
//	md := NewMetadata("c1", "contoso", "my-stamp-01")
//	md.RoleInstance()  // "App-c1"
//	md.SourceMoniker() // "LMYSTAMP01"
func NewMetadata(containerName, tenant, stampName string) Metadata {
	return Metadata{
		roleInstance:  "App-" + containerName,
		tenant:        tenant,
		sourceMoniker: sourceMoniker(stampName),
		pid:           os.Getpid(),
	}
}

func sourceMoniker(stampName string) string {
	if stampName == "" {
		return ""
	}
	return "L" + strings.ToUpper(strings.ReplaceAll(stampName, "-", ""))
}

// RoleInstance returns the role/instance identity, "App-" followed by the container name.
func (m Metadata) RoleInstance() string { return m.roleInstance }

// Tenant returns the tenant identifier.
func (m Metadata) Tenant() string { return m.tenant }

// SourceMoniker returns the short stamp identifier, or "" when no stamp was configured.
func (m Metadata) SourceMoniker() string { return m.sourceMoniker }

// Pid returns the process identifier captured at construction.
func (m Metadata) Pid() int { return m.pid }
