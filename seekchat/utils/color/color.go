// seekchat/utils/color/color.go
package color

import (
	"github.com/fatih/color"
)

var (
	promptColor   = color.New(color.FgCyan, color.Bold)
	infoColor     = color.New(color.FgGreen)
	warningColor  = color.New(color.FgYellow, color.Bold)
	errorColor    = color.New(color.FgRed, color.Bold)
	thinkingColor = color.New(color.FgHiBlack, color.Italic)
	toggleOnColor = color.New(color.FgGreen, color.Bold)
	toggleOff     = color.New(color.FgHiBlack)
)

func ColorPrompt(s string) string {
	return promptColor.Sprint(s)
}

func ColorInfo(s string) string {
	return infoColor.Sprint(s)
}

func ColorWarning(s string) string {
	return warningColor.Sprint(s)
}

func ColorError(s string) string {
	return errorColor.Sprint(s)
}

func ColorThinking(s string) string {
	return thinkingColor.Sprint(s)
}

// ColorToggle renders an on/off flag for the REPL status line.
func ColorToggle(name string, on bool) string {
	if on {
		return toggleOnColor.Sprint(name + ":on")
	}
	return toggleOff.Sprint(name + ":off")
}
