package cmd

import "fmt"

// The same ANSI palette the original build script printed with.
const (
	colRed    = "\033[31m"
	colGreen  = "\033[32m"
	colYellow = "\033[33m"
	colBlue   = "\033[34m"
	colOff    = "\033[0m"
)

func info(format string, args ...any) {
	fmt.Printf("%s:: :: %s%s%s\n", colYellow, colGreen, fmt.Sprintf(format, args...), colOff)
}

func infoSub(format string, args ...any) {
	fmt.Printf("%s%s%s\n", colBlue, fmt.Sprintf(format, args...), colOff)
}

func warn(format string, args ...any) {
	fmt.Printf("%s%s%s\n", colYellow, fmt.Sprintf(format, args...), colOff)
}

func fail(format string, args ...any) {
	fmt.Printf("%s%s%s\n", colRed, fmt.Sprintf(format, args...), colOff)
}
