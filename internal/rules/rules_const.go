package rules

// rules_const.go
//
// Thresholds that decide whether a finding is strong enough to be narrated.
// Rules read these at construction; the engine never hard-codes a threshold.

// ============================================================================
// 1. SUFFICIENCY - hard gates checked before a rule is evaluated
// ============================================================================

const (
	// DEFAULT_MAX_MISSING_FRACTION: share of rows without a usable value above
	// which no rule may speak for the view.
	DEFAULT_MAX_MISSING_FRACTION = 0.5

	// DEFAULT_MIN_MATCH_RATE: lowest acceptable join rate for auxiliary fields
	// (deprivation scores, area types) used by a rule.
	DEFAULT_MIN_MATCH_RATE = 0.8

	// COMPARISON_MIN_GROUPS: any best/worst or high/low comparison needs at
	// least this many groups in the resolved view.
	COMPARISON_MIN_GROUPS = 2
)

// ============================================================================
// 2. COMPARISON - extrema, outliers, quartiles
// ============================================================================

const (
	// EXTREMA_MIN_RELATIVE_SPREAD: max-min spread relative to the view
	// aggregate below which groups are described as broadly similar.
	EXTREMA_MIN_RELATIVE_SPREAD = 0.10

	// OUTLIER_MIN_GROUPS: Tukey fences on fewer groups flag noise
	OUTLIER_MIN_GROUPS = 4

	// QUARTILE_MIN_ROWS: four rows per quarter
	QUARTILE_MIN_ROWS = 16

	// QUARTILE_MIN_RELATIVE_GAP: top-vs-bottom quarter gap worth reporting
	QUARTILE_MIN_RELATIVE_GAP = 0.10

	// POSITION_PARITY_BAND: relative difference from the reference average
	// within which a group is "in line with" it.
	POSITION_PARITY_BAND = 0.02
)

// ============================================================================
// 3. ASSOCIATION - correlation and scaling
// ============================================================================

const (
	CORRELATION_MIN_PAIRS = 10
	CORRELATION_ALPHA     = 0.05

	// CORRELATION_MIN_ABS_R: significant but negligible correlations are not narrated
	CORRELATION_MIN_ABS_R = 0.3

	// CORRELATION_STRONG_ABS_R: boundary between "moderate" and "strong"
	CORRELATION_STRONG_ABS_R = 0.5

	POWER_LAW_MIN_POINTS = 10

	// POWER_LAW_MIN_R_SQUARED: the log-log fit must explain at least this much variance
	POWER_LAW_MIN_R_SQUARED = 0.5
)

// ============================================================================
// 4. PRIORITY - lower renders first within a fragment type
// ============================================================================

const (
	PRIORITY_INVESTMENT_BCR      = 5
	PRIORITY_POSITION            = 10
	PRIORITY_GAP                 = 10
	PRIORITY_INVESTMENT          = 10
	PRIORITY_GAP_RATE            = 11
	PRIORITY_QUARTILE            = 15
	PRIORITY_DISTRIBUTION        = 20
	PRIORITY_DISTRIBUTION_MEDIAN = 21
	PRIORITY_EXTREMA             = 20
	PRIORITY_QUARTILE_ACTION     = 20
	PRIORITY_OUTLIER             = 25
	PRIORITY_CORRELATION         = 30
	PRIORITY_OUTLIER_ACTION      = 30
	PRIORITY_POWER_LAW           = 40
	PRIORITY_EXTREMA_ACTION      = 40
)
