package tick

// NextInitializedArrayStart implements the two-layer lookup of spec §4.5:
// try the default-window bitmap first; if the search exits that window,
// consult the extension starting from the boundary it returned. Ground
// truth: the teacher's nextInitializedTickArrayStartIndexUtils loop in
// pkg/pool/raydium/clmm_tickerarray.go, generalized to the tagged
// SearchResult type instead of a (bool, int64, error) triple.
func NextInitializedArrayStart(bm *Bitmap, ext *Extension, currentStart int32, spacing uint16, zeroForOne bool) SearchResult {
	result := bm.NextInitializedStartInDefaultWindow(currentStart, spacing, zeroForOne)
	if result.Found {
		return result
	}
	return ext.NextInitializedStart(result.Boundary, spacing, zeroForOne)
}
