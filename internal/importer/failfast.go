package importer

// ShouldFailFast decides whether to abandon an import given the rows
// inspected so far. The check only activates once the inspection sample is
// full, or at end of file so short files still get the full-file check.
// The threshold is inclusive: an invalid rate equal to thresholdPercent
// triggers the abort.
func ShouldFailFast(inspected, invalid int, thresholdPercent float64, sampleSize int, endOfFile bool) bool {
	if inspected <= 0 {
		return false
	}
	if !endOfFile && inspected < sampleSize {
		return false
	}
	percent := float64(invalid) * 100.0 / float64(inspected)
	return percent >= thresholdPercent
}
