package ui

import "time"

// Terminal width thresholds for responsive layouts.
const (
	// AutoHideWidth is the width below which tables give way to charts
	// when autoHideTables is on.
	AutoHideWidth = 80

	// LayoutCompactWidth is the threshold below which the nav pane collapses.
	LayoutCompactWidth = 100

	// NavWidth is the width of the panel list.
	NavWidth = 26
)

// Chart sizing.
const (
	// ChartBars is the most bars a bar chart draws before summarizing.
	ChartBars = 10
)

// Timing constants.
const (
	// HeaderTick refreshes the relative "updated" time in the header.
	HeaderTick = time.Second

	// FlashDuration is how long a status message stays in the command bar.
	FlashDuration = 3 * time.Second
)
