package shared

import (
	"os"
	"strings"
)

// DebugPrint prints debug messages when debug mode is enabled
func DebugPrint(debug bool, format string, args ...interface{}) {
	if debug {
		ColorDebug.Printf("🐛 DEBUG: "+format+"\n", args...)
	}
}

// IsDebugMode checks if debug mode is enabled via environment variable
func IsDebugMode() bool {
	v := strings.ToLower(os.Getenv("DEBUG"))
	return v == "1" || v == "true"
}
