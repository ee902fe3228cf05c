// Package render rasterizes envelope snapshots into bar-chart PNG frames.
//
// Coordinates are computed in the unit square and scaled to the output size.
// Each of the K channels owns a horizontal band of height 1/K; each bar is a
// full-opacity attack segment above the band midline and a translucent
// release segment below it. Bars are filled with golang.org/x/image/vector so
// edges are anti-aliased.
package render
