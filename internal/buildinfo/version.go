// Package buildinfo holds values stamped into the binary at link time:
//
//	go build -ldflags "-X github.com/YoshitsuguKoike/auditjournal/internal/buildinfo.Version=v1.0.0 \
//	  -X github.com/YoshitsuguKoike/auditjournal/internal/buildinfo.Commit=abc1234"
package buildinfo

var (
	Version = "dev"
	Commit  = ""
)

// GetVersion returns the version, "dev" when unset
func GetVersion() string {
	if Version == "" {
		return "dev"
	}
	return Version
}

// GetCommit returns the source revision, "unknown" when unset
func GetCommit() string {
	if Commit == "" {
		return "unknown"
	}
	return Commit
}
