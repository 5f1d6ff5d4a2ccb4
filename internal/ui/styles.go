package ui

import "github.com/charmbracelet/lipgloss"

// Colors used in the application.
var (
	colorPrimary   = lipgloss.Color("62")  // Purple
	colorSecondary = lipgloss.Color("241") // Gray
	colorMuted     = lipgloss.Color("240") // Darker gray
	colorHighlight = lipgloss.Color("212") // Pink
	colorAccent    = lipgloss.Color("214") // Amber
	colorError     = lipgloss.Color("196") // Red
)

// HeaderTitle style for the application name.
var HeaderTitle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("255")).
	Background(colorPrimary).
	Padding(0, 1)

// HeaderChannel style for the channel handle.
var HeaderChannel = lipgloss.NewStyle().
	Foreground(colorHighlight).
	Bold(true)

// HeaderMeta style for counts and the channel id.
var HeaderMeta = lipgloss.NewStyle().
	Foreground(colorSecondary)

// SelectedMarker is the gutter shown next to the highlighted card.
var SelectedMarker = lipgloss.NewStyle().
	Foreground(colorHighlight).
	Bold(true)

// CardTitle style for unselected card titles.
var CardTitle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("255"))

// SelectedTitle style for the highlighted card title.
var SelectedTitle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("255")).
	Bold(true)

// CardMeta style for channel, date and counters.
var CardMeta = lipgloss.NewStyle().
	Foreground(colorSecondary)

// CardSummary style for the short summary line.
var CardSummary = lipgloss.NewStyle().
	Foreground(lipgloss.Color("250"))

// WatchLink style for the external link label.
var WatchLink = lipgloss.NewStyle().
	Foreground(colorPrimary).
	Underline(true)

// NewBadge style for recently summarized items.
var NewBadge = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("0")).
	Background(colorAccent).
	Padding(0, 1)

// Skeleton style for loading placeholder bars.
var Skeleton = lipgloss.NewStyle().
	Foreground(lipgloss.Color("237"))

// StatusBar style for the bottom status bar.
var StatusBar = lipgloss.NewStyle().
	Foreground(lipgloss.Color("255")).
	Background(lipgloss.Color("236")).
	Padding(0, 1)

// StatusBarKey style for key hints in status bar.
var StatusBarKey = lipgloss.NewStyle().
	Foreground(colorHighlight).
	Bold(true)

// StatusBarText style for descriptive text in status bar.
var StatusBarText = lipgloss.NewStyle().
	Foreground(colorSecondary)

// FooterStyle for the attribution line.
var FooterStyle = lipgloss.NewStyle().
	Foreground(colorMuted).
	Padding(0, 1)

// ErrorStyle for displaying errors.
var ErrorStyle = lipgloss.NewStyle().
	Foreground(colorError).
	Bold(true).
	Padding(0, 1)

// RetryButton style for the retry control in the error panel.
var RetryButton = lipgloss.NewStyle().
	Foreground(lipgloss.Color("255")).
	Background(colorPrimary).
	Padding(0, 2)

// HelpStyle for help text.
var HelpStyle = lipgloss.NewStyle().
	Foreground(colorMuted).
	Padding(1, 2)

// EmptyTitle style for the empty-state heading.
var EmptyTitle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("252"))

// DetailPanel style for the detail overlay box.
var DetailPanel = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(colorPrimary).
	Padding(0, 1)

// DetailTitle style for the overlay heading.
var DetailTitle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("255"))

// DetailSection style for section labels inside the overlay.
var DetailSection = lipgloss.NewStyle().
	Bold(true).
	Foreground(colorHighlight)

// DetailShort style for the short summary inside the overlay.
var DetailShort = lipgloss.NewStyle().
	Foreground(colorSecondary)

// CloseButton style for the overlay close control.
var CloseButton = lipgloss.NewStyle().
	Foreground(lipgloss.Color("255")).
	Background(colorPrimary).
	Padding(0, 2)

// DebugPanel style for the debug overlay.
var DebugPanel = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(colorHighlight).
	Padding(1, 2)

// DebugHeaderStyle for section headers inside the debug overlay.
var DebugHeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(colorHighlight)
