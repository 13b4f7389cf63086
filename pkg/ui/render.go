package ui

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/srodi/proctop/pkg/types"
)

// ClearScreen moves the cursor home and wipes the terminal.
const ClearScreen = "\033[H\033[2J"

const (
	// GaugeSegments is the width of the CPU gauge; each segment is 5%.
	GaugeSegments = 20
	maxNameWidth  = 28
	maxClassWidth = 26
	maxDetailRows = 10
	ruleWidth     = 110
)

// Frame is everything one redraw of the main list shows.
type Frame struct {
	Snapshot types.Snapshot
	Detail   *types.Detail
	Interval time.Duration
}

// Render clears the screen and writes the process table, the optional detail
// panel and the command help in a single write.
func Render(w io.Writer, f Frame) error {
	var buf bytes.Buffer
	buf.WriteString(ClearScreen)
	fmt.Fprintf(&buf, "proctop (type s to exit)\n")
	if f.Snapshot.Taken.IsZero() {
		fmt.Fprintf(&buf, "Updated: - | Interval: %v\n\n", f.Interval)
	} else {
		fmt.Fprintf(&buf, "Updated: %s | Interval: %v\n\n", f.Snapshot.Taken.Format(time.TimeOnly), f.Interval)
	}

	WriteTable(&buf, f.Snapshot)
	if f.Detail != nil {
		buf.WriteString("\n")
		WriteDetail(&buf, *f.Detail)
	}

	buf.WriteString("\nCommands: <#> act on a row | Enter refresh | s quit\n")
	if f.Detail != nil {
		buf.WriteString("          p stop detailed monitoring\n")
	} else {
		buf.WriteString("          m <#> start detailed monitoring (e.g. m 1)\n")
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// WriteTable writes the ranked rows followed by the monitor's own entry.
func WriteTable(w io.Writer, snap types.Snapshot) {
	entries := snap.Entries()
	if len(entries) == 0 {
		fmt.Fprintln(w, "Collecting data...")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tPID\tNAME\tCLASS\tRSS(MB)\tPEAK(MB)\tVMS(MB)\tCPU(%)\tPRIORITY\tTHREADS")
	for i, s := range entries {
		fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%.2f\t%.2f\t%.2f\t%.1f\t%s\t%s\n",
			i+1, s.PID, truncate(s.Name, maxNameWidth), truncate(s.Classification, maxClassWidth),
			s.RSSMB, s.PeakRSSMB, s.VMSMB, s.CPUPercent, s.PriorityLabel, threadCount(s.Threads))
	}
	tw.Flush()
}

// WriteDetail writes the panel for the process under detailed monitoring.
func WriteDetail(w io.Writer, d types.Detail) {
	fmt.Fprintf(w, "--- Detailed monitoring of PID %d ---\n", d.PID)
	switch {
	case d.Err != nil:
		fmt.Fprintf(w, "Detailed monitoring stopped: %v\n", d.Err)
	case d.Pending():
		fmt.Fprintln(w, "Waiting for the first sample...")
	default:
		s := d.Sample
		fmt.Fprintf(w, "Name: %s | Status: %s | RSS: %.2f MB | VMS: %.2f MB | Threads: %s\n",
			s.Name, s.Status, s.RSSMB, s.VMSMB, threadCount(s.Threads))
		fmt.Fprintf(w, "CPU: %s\n", Gauge(s.CPUPercent))
		writeThreadTimes(w, s.ThreadList)
	}
	fmt.Fprintln(w, strings.Repeat("-", ruleWidth))
}

func writeThreadTimes(w io.Writer, threads []types.ThreadTimes) {
	if len(threads) == 0 {
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TID\tUSER(s)\tSYSTEM(s)")
	for i, th := range threads {
		if i == maxDetailRows {
			fmt.Fprintf(tw, "... %d more\t\t\n", len(threads)-maxDetailRows)
			break
		}
		fmt.Fprintf(tw, "%d\t%.2f\t%.2f\n", th.ID, th.UserSeconds, th.SystemSeconds)
	}
	tw.Flush()
}

// Gauge draws a 20-segment bar for a CPU percentage. Values above 100 (busy
// multi-threaded processes) fill the bar but keep their numeric label.
func Gauge(percent float64) string {
	filled := int(percent / (100 / GaugeSegments))
	filled = min(max(filled, 0), GaugeSegments)
	return "[" + strings.Repeat("#", filled) + strings.Repeat(" ", GaugeSegments-filled) + "] " +
		strconv.FormatFloat(percent, 'f', 1, 64) + "%"
}

// ActionMenu writes the submenu shown for one selected process.
func ActionMenu(w io.Writer, pid int32, name string) error {
	var buf bytes.Buffer
	buf.WriteString(ClearScreen)
	fmt.Fprintf(&buf, "--- Actions for PID %d (%s) ---\n", pid, name)
	buf.WriteString("1. Change priority\n")
	buf.WriteString("2. Set CPU affinity\n")
	buf.WriteString("3. List threads\n")
	buf.WriteString("4. Terminate process\n")
	buf.WriteString("5. Start/refresh detailed monitoring of this process\n")
	buf.WriteString("0. Back to the process list\n")
	_, err := w.Write(buf.Bytes())
	return err
}

func threadCount(n int) string {
	if n < 0 {
		return "N/A"
	}
	return strconv.Itoa(n)
}

func truncate(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	return string(r[:width-1]) + "~"
}
