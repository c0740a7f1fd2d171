package ui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/muurk/blescan/internal/discovery"
	"github.com/muurk/blescan/internal/snapshot"
)

// Printer writes styled output to a writer
type Printer struct {
	out   io.Writer
	width int
}

// NewPrinter creates a new Printer that writes to the given writer.
// If w is nil, os.Stdout is used.
func NewPrinter(w io.Writer) *Printer {
	if w == nil {
		w = os.Stdout
	}
	return &Printer{
		out:   w,
		width: GetTerminalWidth(),
	}
}

// Width returns the width used for boxes
func (p *Printer) Width() int {
	return p.width
}

// SetWidth overrides the detected terminal width
func (p *Printer) SetWidth(width int) *Printer {
	p.width = clampWidth(width)
	return p
}

// Print writes content to the output
func (p *Printer) Print(content string) {
	_, _ = fmt.Fprint(p.out, content)
}

// Println writes content with a newline
func (p *Printer) Println(content string) {
	_, _ = fmt.Fprintln(p.out, content)
}

// Newline prints an empty line
func (p *Printer) Newline() {
	_, _ = fmt.Fprintln(p.out)
}

// PrintHeader prints a command header box
func (p *Printer) PrintHeader(title, command string, params ...Param) {
	p.Println(NewHeader(title, command, params...).SetWidth(p.width).Render())
}

// PrintDevices prints the device table
func (p *Printer) PrintDevices(devices []snapshot.Device) {
	p.Println(RenderDeviceTable(devices))
}

// PrintServers prints discovered servers, or a notice when there are none
func (p *Printer) PrintServers(services []*discovery.Service) {
	if len(services) == 0 {
		p.Println(StatusDegradedStyle.Render("  " + WarningMarker + " No blescan servers found on the local network"))
		return
	}
	p.Println(RenderServerTable(services))
}

// PrintError prints an error box with an optional hint
func (p *Printer) PrintError(title string, err error, hint string) {
	p.Println(RenderErrorBox(title, err, hint, p.width))
}

// RenderErrorBox renders an error box
func RenderErrorBox(title string, err error, hint string, width int) string {
	lines := []string{ErrorTitleStyle.Render(FailureMarker + "  " + title)}
	if err != nil {
		lines = append(lines, ErrorMessageStyle.Render("Error: "+err.Error()))
	}
	if hint != "" {
		lines = append(lines, "", HintStyle.Render(hint))
	}
	return ErrorBoxStyle(width).Render(strings.Join(lines, "\n"))
}
