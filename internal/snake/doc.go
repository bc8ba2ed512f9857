// Package snake implements an active contour ("snake") that settles a closed
// polygon of integer points on object boundaries in a grayscale image.
//
// Every point looks at the 7x7 neighbourhood around its current position and
// accumulates three normalized energy terms per candidate offset:
//
//   - distance: sum of squared distances to all contour points (growth or
//     shrink pressure)
//   - deviation: asymmetry between the distances to the two cyclic
//     neighbours (smoothness and equal spacing)
//   - gradient: squared image intensity at the candidate (edge attraction)
//
// One iteration is a full energy pass over a frozen snapshot of the contour
// followed by a full update pass that moves each point to the minimum of its
// combined field. Results therefore do not depend on processing order.
//
// Images are gonum matrices indexed as (row, col). Callers usually feed the
// output of the edges package.
//
// A Contour is not safe for concurrent use.
package snake
