// Package ui renders the non-interactive output of the blescan CLI.
//
// Commands such as "blescan list" and "blescan discover" print once and
// exit: a header box, a device or server table, and on failure an error
// box with a short hint. Styling uses Lipgloss; widths follow the terminal
// (via golang.org/x/term) clamped to MinTerminalWidth..MaxContentWidth.
//
// Logging is controlled by BLESCAN_LOG_LEVEL. When it is unset the logger
// is silent so that only the curated output reaches the terminal.
package ui
