package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
)

// ComputeRunID computes a deterministic run_id using SHA256.
// Formula: SHA256(product_id|competition|discount_pct|model_name|model_version|comparison_id)
// comparison_id is empty for standalone runs.
// Returns hex-encoded hash (64 characters).
func ComputeRunID(
	productID string,
	competition string,
	discountPct float64,
	modelName string,
	modelVersion string,
	comparisonID string,
) string {
	data := fmt.Sprintf("%s|%s|%s|%s|%s|%s",
		productID,
		competition,
		formatDiscount(discountPct),
		modelName,
		modelVersion,
		comparisonID,
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}

// ComputeComparisonID computes the id shared by the runs of one scenario comparison.
// Formula: SHA256(product_id|discount_pct|model_name|model_version|competitions...)
func ComputeComparisonID(
	productID string,
	discountPct float64,
	modelName string,
	modelVersion string,
	competitions []string,
) string {
	data := fmt.Sprintf("%s|%s|%s|%s|%s",
		productID,
		formatDiscount(discountPct),
		modelName,
		modelVersion,
		strings.Join(competitions, ","),
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}

// formatDiscount renders the shortest representation that round-trips, so
// distinct discounts never share an id.
func formatDiscount(d float64) string {
	if d == 0 {
		d = 0 // collapse -0
	}
	return strconv.FormatFloat(d, 'g', -1, 64)
}
