package main

import (
	"fmt"
	"io"
	"os"

	"github.com/olekukonko/tablewriter"
)

// ANSI color codes (constants)
const (
	ansiReset  = "\033[0m"
	ansiRed    = "\033[31m"
	ansiGreen  = "\033[32m"
	ansiYellow = "\033[33m"
	ansiCyan   = "\033[36m"
	ansiBold   = "\033[1m"
	ansiDim    = "\033[2m"
)

var colorsEnabled = true

func init() {
	// Disable colors if NO_COLOR env var is set
	if os.Getenv("NO_COLOR") != "" {
		colorsEnabled = false
	}
}

func colorize(color, text string) string {
	if !colorsEnabled {
		return text
	}
	return color + text + ansiReset
}

func colorRed(text string) string    { return colorize(ansiRed, text) }
func colorGreen(text string) string  { return colorize(ansiGreen, text) }
func colorYellow(text string) string { return colorize(ansiYellow, text) }
func colorCyan(text string) string   { return colorize(ansiCyan, text) }
func colorBold(text string) string   { return colorize(ansiBold, text) }
func colorDim(text string) string    { return colorize(ansiDim, text) }

func printSuccess(w io.Writer, message string) {
	fmt.Fprintln(w, colorGreen("✓")+" "+message)
}

func printError(message string) {
	fmt.Fprintln(os.Stderr, colorRed("✗")+" "+message)
}

func printWarning(w io.Writer, message string) {
	fmt.Fprintln(w, colorYellow("⚠")+" "+message)
}

func printHeader(w io.Writer, title string) {
	fmt.Fprintln(w, colorBold(colorCyan(title)))
	fmt.Fprintln(w, colorDim("────────────────────────────────────────"))
}

// printTable renders rows under headers. Cells are printed as given.
func printTable(w io.Writer, headers []string, rows [][]string) {
	table := tablewriter.NewWriter(w)
	table.SetHeader(headers)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.AppendBulk(rows)
	table.Render()
}
