// Package design provides biquad coefficient design using the RBJ
// Audio EQ Cookbook formulas.
//
// Only the prototypes needed by the measurement chain are provided:
// a highpass and a high-shelf, the two stages of the BS.1770 K-weighting
// pre-filter. Invalid parameters yield zero-valued coefficients rather
// than an error; construction-time validation belongs to the callers.
package design
