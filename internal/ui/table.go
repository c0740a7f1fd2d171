package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/muurk/blescan/internal/discovery"
	"github.com/muurk/blescan/internal/snapshot"
)

// RenderDeviceTable renders devices in scan order as a bordered table
// followed by a count line.
func RenderDeviceTable(devices []snapshot.Device) string {
	rows := make([][]string, len(devices))
	for i, d := range devices {
		rows[i] = []string{strconv.Itoa(i + 1), d.DisplayName(), d.Address}
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(PrimaryColor)).
		Headers("#", "NAME", "ADDRESS").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return TableHeaderStyle
			case col == 1 && devices[row].Name != nil:
				return NamedDeviceStyle
			case col == 1:
				return TableMutedCellStyle
			default:
				return TableCellStyle
			}
		})

	return t.Render() + "\n" + SummaryStyle.Render(DeviceCount(len(devices)))
}

// RenderServerTable renders discovered servers as a bordered table
func RenderServerTable(services []*discovery.Service) string {
	rows := make([][]string, len(services))
	for i, s := range services {
		version := s.GetMetadata(discovery.TxtVersion)
		if version == "" {
			version = "-"
		}
		rows[i] = []string{s.Instance, s.BaseURL(), strings.TrimSuffix(s.Hostname, "."), version}
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(PrimaryColor)).
		Headers("INSTANCE", "URL", "HOST", "VERSION").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return TableHeaderStyle
			}
			return TableCellStyle
		})

	return t.Render() + "\n" + SummaryStyle.Render(fmt.Sprintf("%d server(s) found", len(services)))
}

// DeviceCount returns "1 device" or "N devices"
func DeviceCount(n int) string {
	if n == 1 {
		return "1 device"
	}
	return fmt.Sprintf("%d devices", n)
}
