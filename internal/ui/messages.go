// Package ui provides the Bubble Tea TUI for ytsummary.
package ui

import "github.com/abelbrown/ytsummary/internal/controller"

// FeedLoaded is sent when a feed request finishes, successfully or not.
type FeedLoaded struct {
	Result controller.Result
}

// ExternalOpened is sent after the watch link was handed to the opener.
type ExternalOpened struct {
	VideoID string
	Err     error
}
