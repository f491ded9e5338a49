package recognizer

// Gate reports whether a confidence value meets the threshold. Pure and
// side-effect free; applied once, after the dispatching stage.
func Gate(confidence, threshold float64) bool {
	return confidence >= threshold
}
