package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/law-makers/bizcrawl/internal/ui"
)

// customHelpFunc provides a colorized help output
func customHelpFunc(cmd *cobra.Command, args []string) {
	w := os.Stdout
	fmt.Fprintf(w, "\n%s\n", ui.Style(strings.ToUpper(cmd.Name()), ui.ColorBold, ui.ColorCyan))
	if cmd.Short != "" {
		fmt.Fprintln(w, cmd.Short)
	}
	if cmd.Long != "" && cmd.Long != cmd.Short {
		fmt.Fprintf(w, "\n%s\n", wrapText(cmd.Long, 80))
	}

	writeUsage(w, cmd)
	writeExamples(w, cmd)
	writeCommands(w, cmd)

	if cmd.HasAvailableLocalFlags() {
		writeSection(w, "Flags")
		printFlagsTo(w, cmd.LocalFlags().FlagUsages())
	}
	if cmd.HasAvailableInheritedFlags() {
		writeSection(w, "Global Flags")
		printFlagsTo(w, cmd.InheritedFlags().FlagUsages())
	}

	if cmd.HasAvailableSubCommands() {
		fmt.Fprintf(w, "\n%s\n", ui.Style(fmt.Sprintf("Use \"%s <command> --help\" for more information about a command.", cmd.CommandPath()), ui.ColorDim))
	}
	fmt.Fprintln(w)
}

// customUsageFunc prints the short usage shown after a command error
func customUsageFunc(cmd *cobra.Command) error {
	w := os.Stderr
	writeUsage(w, cmd)
	writeCommands(w, cmd)
	if cmd.HasAvailableLocalFlags() {
		writeSection(w, "Flags")
		printFlagsTo(w, cmd.LocalFlags().FlagUsages())
	}
	fmt.Fprintf(w, "\n%s\n", ui.Style(fmt.Sprintf("Use \"%s --help\" for more information.", cmd.CommandPath()), ui.ColorDim))
	return nil
}

func writeSection(w io.Writer, title string) {
	fmt.Fprintf(w, "\n%s\n", ui.Style(title, ui.ColorBold, ui.ColorWhite))
}

func writeUsage(w io.Writer, cmd *cobra.Command) {
	writeSection(w, "Usage")
	if cmd.Runnable() {
		fmt.Fprintf(w, "  %s\n", ui.Style(cmd.UseLine(), ui.ColorCyan))
	}
	if cmd.HasAvailableSubCommands() {
		fmt.Fprintf(w, "  %s %s %s\n",
			ui.Style(cmd.CommandPath(), ui.ColorCyan),
			ui.Style("<command>", ui.ColorYellow),
			ui.Style("[flags]", ui.ColorDim))
	}
}

func writeExamples(w io.Writer, cmd *cobra.Command) {
	if !cmd.HasExample() {
		return
	}
	writeSection(w, "Examples")
	lastWasCommand := false
	for _, line := range strings.Split(cmd.Example, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "":
			continue
		case strings.HasPrefix(trimmed, "#"):
			if lastWasCommand {
				fmt.Fprintln(w)
			}
			fmt.Fprintf(w, "  %s\n", ui.Style(trimmed, ui.ColorDim))
			lastWasCommand = false
		default:
			fmt.Fprintf(w, "  %s\n", ui.Style("$ "+trimmed, ui.ColorGreen))
			lastWasCommand = true
		}
	}
}

func writeCommands(w io.Writer, cmd *cobra.Command) {
	if !cmd.HasAvailableSubCommands() {
		return
	}
	writeSection(w, "Commands")

	var available []*cobra.Command
	maxLen := 0
	for _, c := range cmd.Commands() {
		if c.IsAvailableCommand() && c.Name() != "help" {
			available = append(available, c)
			maxLen = max(maxLen, len(c.Name()))
		}
	}
	for _, c := range available {
		padding := strings.Repeat(" ", maxLen-len(c.Name())+2)
		fmt.Fprintf(w, "  %s%s%s\n", ui.Style(c.Name(), ui.ColorCyan), padding, ui.Style(c.Short, ui.ColorDim))
	}
}

// printFlagsTo prints flag usages aligned, with flag names highlighted
func printFlagsTo(w io.Writer, flagUsages string) {
	lines := strings.Split(flagUsages, "\n")

	width := 28
	for _, line := range lines {
		trimmed := strings.TrimLeft(line, " ")
		if strings.HasPrefix(trimmed, "-") {
			flagPart, _, _ := strings.Cut(trimmed, "  ")
			width = max(width, len(strings.TrimSpace(flagPart)))
		}
	}

	for _, line := range lines {
		trimmed := strings.TrimLeft(line, " ")
		if trimmed == "" {
			continue
		}
		if !strings.HasPrefix(trimmed, "-") {
			// continuation of the previous description
			fmt.Fprintf(w, "%s%s\n", strings.Repeat(" ", width+4), ui.Style(trimmed, ui.ColorDim))
			continue
		}
		flagPart, desc, ok := strings.Cut(trimmed, "  ")
		flagPart = strings.TrimSpace(flagPart)
		if !ok {
			fmt.Fprintf(w, "  %s\n", ui.Style(flagPart, ui.ColorGreen))
			continue
		}
		padding := strings.Repeat(" ", width-len(flagPart)+2)
		fmt.Fprintf(w, "  %s%s%s\n", ui.Style(flagPart, ui.ColorGreen), padding, ui.Style(strings.TrimSpace(desc), ui.ColorDim))
	}
}

// wrapText wraps text at width, keeping paragraphs and list items intact
func wrapText(text string, width int) string {
	var paragraphs []string
	for _, para := range strings.Split(text, "\n\n") {
		var lines []string
		for _, line := range strings.Split(para, "\n") {
			trimmed := strings.TrimSpace(line)
			if trimmed == "" {
				continue
			}
			if strings.HasPrefix(trimmed, "-") || strings.HasPrefix(trimmed, "*") {
				lines = append(lines, trimmed)
				continue
			}
			if n := len(lines); n > 0 && !isListItem(lines[n-1]) && len(lines[n-1])+1+len(trimmed) <= width {
				// reflow into the previous line
				trimmed = lines[n-1] + " " + trimmed
				lines = lines[:n-1]
			}
			lines = append(lines, wrapLine(trimmed, width)...)
		}
		if len(lines) > 0 {
			paragraphs = append(paragraphs, strings.Join(lines, "\n"))
		}
	}
	return strings.Join(paragraphs, "\n\n")
}

func isListItem(s string) bool {
	return strings.HasPrefix(s, "-") || strings.HasPrefix(s, "*")
}

func wrapLine(line string, width int) []string {
	var out []string
	var cur strings.Builder
	for _, word := range strings.Fields(line) {
		if cur.Len() > 0 && cur.Len()+1+len(word) > width {
			out = append(out, cur.String())
			cur.Reset()
		}
		if cur.Len() > 0 {
			cur.WriteByte(' ')
		}
		cur.WriteString(word)
	}
	if cur.Len() > 0 {
		out = append(out, cur.String())
	}
	return out
}
