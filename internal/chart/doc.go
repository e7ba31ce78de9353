// Package chart derives panel chart series from the same rows the table
// shows and keeps drill-down in step with row expansion.
//
// A panel has at most one chart Instance; AddChart always tears the old one
// down before building the next. When the active plot sets redrawOnExpand,
// the series is the children of every row the table has expanded, in table
// order, so drill-down survives chart teardown and metric switches. With no
// expanded rows the series is the top-level rows.
//
// Painting is delegated to a Painter. Refresh recomputes series on new data
// but only paints panels that are on screen; Repaint draws the current series
// after a resize.
package chart
