// Package quantizer reduces a weighted set of distinct colors to a small
// palette with k-means.
//
// Seeding uses k-means++ over the distinct colors, refinement uses Lloyd
// iterations whose assignment step runs in parallel over disjoint chunks of
// the point set. Several independent attempts are run and the centroids of
// the last one are kept.
package quantizer
