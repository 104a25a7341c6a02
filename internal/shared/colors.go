package shared

import (
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// Console printers shared by the logger, the prompts and the summary
var (
	ColorInfo    = color.New(color.FgCyan)
	ColorSuccess = color.New(color.FgGreen)
	ColorWarning = color.New(color.FgYellow)
	ColorError   = color.New(color.FgRed)
	ColorPrompt  = color.New(color.FgBlue, color.Bold)
	ColorDebug   = color.New(color.FgMagenta)
	ColorTitle   = color.New(color.FgGreen, color.Bold)
)

// InitializeColors disables colored output when stdout is not a terminal or NO_COLOR is set
func InitializeColors() {
	_, noColor := os.LookupEnv("NO_COLOR")
	color.NoColor = noColor || !isatty.IsTerminal(os.Stdout.Fd())
}
