package ui

import "strings"

const (
	reset       = "\033[0m"
	bold        = "\033[1m"
	outlineGray = "\033[38;5;244m"
	honeyOrange = "\033[38;5;214m"
	beeYellow   = "\033[38;5;226m"
	mint        = "\033[38;5;121m"
	seafoam     = "\033[38;5;49m"
	cobalt      = "\033[38;5;33m"
	deepIndigo  = "\033[38;5;61m"
	fuchsia     = "\033[38;5;177m"
)

// Banner renders a colored proctop wordmark with the startup notice.
func Banner() string {
	var b strings.Builder

	p := []string{"██████╗ ", "██╔══██╗", "██████╔╝", "██╔═══╝ ", "██║     ", "╚═╝     "}
	r := []string{"██████╗ ", "██╔══██╗", "██████╔╝", "██╔══██╗", "██║  ██║", "╚═╝  ╚═╝"}
	o := []string{" ██████╗ ", "██╔═══██╗", "██║   ██║", "██║   ██║", "╚██████╔╝", " ╚═════╝ "}
	c := []string{" ██████╗", "██╔════╝", "██║     ", "██║     ", "╚██████╗", " ╚═════╝"}
	t := []string{"████████╗", "╚══██╔══╝", "   ██║   ", "   ██║   ", "   ██║   ", "   ╚═╝   "}
	letters := [][]string{p, r, o, c, t, o, p}

	gradient := []string{honeyOrange, beeYellow, mint, seafoam, cobalt, deepIndigo, fuchsia}
	rows := make([]string, len(p))
	for i, letter := range letters {
		color := gradient[i%len(gradient)]
		for row := range letter {
			rows[row] += color + letter[row] + " "
		}
	}
	for _, line := range rows {
		b.WriteString(bold + line + reset + "\n")
	}

	b.WriteString("\n")
	b.WriteString(bold + honeyOrange + "proctop" + reset + "  •  live process monitor\n")
	b.WriteString(outlineGray + "Changing priority, affinity or terminating other users' processes may require elevated privileges." + reset + "\n\n")

	return b.String()
}
