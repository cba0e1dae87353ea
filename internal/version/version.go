package version

import (
	"fmt"

	log "github.com/sirupsen/logrus"
)

// Заполняются через -ldflags "-X github.com/vladislavdragonenkov/storefront/internal/version.version=...".
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// BuildInfo — метаданные сборки.
type BuildInfo struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
}

// Get возвращает метаданные текущей сборки.
func Get() BuildInfo {
	return BuildInfo{Version: version, Commit: commit, Date: date}
}

func (b BuildInfo) String() string {
	return fmt.Sprintf("version=%s commit=%s date=%s", b.Version, b.Commit, b.Date)
}

// Fields возвращает метаданные для структурированного лога.
func (b BuildInfo) Fields() log.Fields {
	return log.Fields{
		"version": b.Version,
		"commit":  b.Commit,
		"date":    b.Date,
	}
}

// String — краткая форма Get().String().
func String() string {
	return Get().String()
}
