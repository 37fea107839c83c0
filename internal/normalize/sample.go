package normalize

// SampleSize returns the power of two subsampling factor that brings a w×h
// image within the limits of cfg. It is always at least 1.
func SampleSize(w, h int, cfg Config) int {
	f := 1
	for !fits(w/f, h/f, cfg) && (w/f > 1 || h/f > 1) {
		f *= 2
	}
	return f
}

func fits(w, h int, cfg Config) bool {
	if cfg.MaxDimension > 0 && (w > cfg.MaxDimension || h > cfg.MaxDimension) {
		return false
	}
	if cfg.MaxPixels > 0 && int64(w)*int64(h) > cfg.MaxPixels {
		return false
	}
	return true
}

// sampledDims is the decoded size at factor f, never below one pixel.
func sampledDims(w, h, f int) (int, int) {
	sw, sh := w/f, h/f
	if sw < 1 {
		sw = 1
	}
	if sh < 1 {
		sh = 1
	}
	return sw, sh
}
