// Package keys maps (kind, id, time[, other id]) tuples to the 64-bit
// variable identifiers used by every constraint graph.
//
// A [Key] packs its fields into disjoint bit ranges:
//
//	| kind (8) | id (16) | other id (16) | time (24) |
//
// so distinct tuples within range never collide and every key decodes back
// to its tuple. [Encode] rejects tuples that do not fit; the named
// constructors ([PoseKey], [WrenchKey], ...) panic instead, since their
// arguments come from a validated robot model.
package keys
