package indexer

import "math"

// TF is the log-scaled term frequency 1 + log10(raw). raw must be >= 1.
func TF(raw int) float64 {
	return 1 + math.Log10(float64(raw))
}

// IDF is log10(n/df). It is zero when the key occurs in every document.
func IDF(df, n int) float64 {
	return math.Log10(float64(n) / float64(df))
}

// TFIDF is the weight written into a posting in pass 2.
func TFIDF(raw, df, n int) float64 {
	return TF(raw) * IDF(df, n)
}

// normalizeLength maps a document's summed squared weights to the ranking
// denominator log10(sqrt(sum)).
func normalizeLength(sumSquares float64) float64 {
	return math.Log10(math.Sqrt(sumSquares))
}
