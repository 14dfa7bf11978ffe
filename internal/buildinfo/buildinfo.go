// Package buildinfo is stamped at link time:
//
//	go build -ldflags "-X github.com/varsilias/ollama-studio/internal/buildinfo.Version=v1.2.0 ..."
package buildinfo

var (
	Version = "dev"
	Commit  = "none"
	BuiltAt = "unknown"
)

type Info struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	BuiltAt string `json:"built_at"`
}

func Get() Info { return Info{Version: Version, Commit: Commit, BuiltAt: BuiltAt} }
