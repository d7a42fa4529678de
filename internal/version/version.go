package version

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Заполняются при сборке через -ldflags "-X .../internal/version.Release=...".
var (
	Release   = "UNKNOWN"
	BuildDate = "UNKNOWN"
	GitHash   = "UNKNOWN"
)

type Info struct {
	Release   string `json:"release"`
	BuildDate string `json:"build_date"`
	GitHash   string `json:"git_hash"`
}

func Get() Info {
	return Info{
		Release:   Release,
		BuildDate: BuildDate,
		GitHash:   GitHash,
	}
}

// Write печатает информацию о сборке в формате JSON.
func Write(w io.Writer) error {
	if err := json.NewEncoder(w).Encode(Get()); err != nil {
		return fmt.Errorf("encode version info: %w", err)
	}
	return nil
}

func PrintVersion() {
	if err := Write(os.Stdout); err != nil {
		fmt.Println(err)
	}
}
