// Package tui implements the interactive terminal UI of "blescan watch".
//
// Built on Bubble Tea, it has two screens:
//
//   - Discovery: browses _blescan._tcp via mDNS with a spinner and a progress
//     bar over the scan window, lists servers with bubbles/list, and accepts
//     a typed address through bubbles/textinput.
//   - Watch: polls GET /devices on the chosen server at a fixed interval and
//     renders the snapshot as a live table. A failed poll keeps the last good
//     list on screen and shows the error beneath it.
//
// Every screen is wrapped by RenderApplicationContainer, which draws the
// header, the content and a footer with bubbles/help key hints.
package tui
