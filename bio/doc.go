/*
	Package bio holds the types and utilities shared by every image format handler:
	logging, the error taxonomy, pixel types, the per-series dimension descriptor and
	its plane addressing arithmetic, region checks and compressed serialization.

	Plane addressing

	A series is a stack of 2-D planes. Each plane sits at a (Z, C, T) coordinate and is
	also addressable by a linear index.  The mapping between the two is fixed by the
	series' dimension order, e.g., "XYCZT", where the axes after XY are enumerated
	fastest-varying first.  For "XYCZT" with 3 channels and 2 z-slices, index 0 is
	(z=0,c=0,t=0), index 1 is (z=0,c=1,t=0), and index 3 is (z=1,c=0,t=0).

	The C axis used in addressing is the effective channel count, the number of
	addressable planes per (Z,T) pair, which differs from SizeC when several samples
	are packed into one RGB plane.
*/
package bio
