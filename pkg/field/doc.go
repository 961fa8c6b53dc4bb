// Package field computes a potential-field steering vector from one planar
// range scan.
//
// Every sample in the scan is a repulsive point whose influence falls off
// with the inverse square of its range. The per-sample contributions are
// summed, a constant forward bias is added, and the result is handed to a
// Gate that either accepts it or replaces it with the null vector.
//
// The package is pure: a Computer holds only its immutable Params and Gate,
// and Compute has no side effects.
package field
