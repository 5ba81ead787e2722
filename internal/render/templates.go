package render

import "gonarrative/domain/narrative"

// Template keys
const (
	TemplateSummaryDistribution     = "summary_distribution"
	TemplateSummaryMedian           = "summary_median"
	TemplateSummaryPosition         = "summary_position"
	TemplateSummaryParity           = "summary_position_parity"
	TemplateKeyFindingRank          = "key_finding_rank"
	TemplateKeyFindingExtrema       = "key_finding_extrema"
	TemplateKeyFindingSpread        = "key_finding_extrema_spread"
	TemplateKeyFindingQuartile      = "key_finding_quartile"
	TemplateKeyFindingCorrelation   = "key_finding_correlation"
	TemplateKeyFindingOutlier       = "key_finding_outlier"
	TemplateKeyFindingPowerLaw      = "key_finding_power_law"
	TemplateRecommendationGap       = "recommendation_gap"
	TemplateRecommendationGapRate   = "recommendation_gap_rate"
	TemplateRecommendationOutlier   = "recommendation_outlier"
	TemplateRecommendationExtrema   = "recommendation_extrema"
	TemplateRecommendationQuartile  = "recommendation_quartile"
	TemplateInvestmentEstimate      = "investment_estimate"
	TemplateInvestmentBenefitToCost = "investment_bcr"
)

// Template is a fixed sentence pattern with named {slot} tokens. Slots lists
// every token the pattern uses; all must be present in an insight's evidence.
type Template struct {
	Key      string
	Fragment narrative.FragmentType
	Pattern  string
	Slots    []string
}

// DefaultTemplates is the closed catalog of sentences the engine can produce
var DefaultTemplates = []Template{
	{
		Key:      TemplateSummaryDistribution,
		Fragment: narrative.FragmentSummary,
		Pattern:  "Across {n_groups} {groups} in view, {metric} averages {average}, with the median {group_noun} at {median}.",
		Slots:    []string{"n_groups", "groups", "metric", "average", "group_noun", "median"},
	},
	{
		Key:      TemplateSummaryMedian,
		Fragment: narrative.FragmentSummary,
		Pattern:  "Across {n_groups} {groups} in view, the median {group_noun} records {median} for {metric}, ranging from {min} to {max}.",
		Slots:    []string{"n_groups", "groups", "group_noun", "median", "metric", "min", "max"},
	},
	{
		Key:      TemplateSummaryPosition,
		Fragment: narrative.FragmentSummary,
		Pattern:  "In {group}, {metric} is {value}, {relative_difference} {direction} the reference average of {reference}.",
		Slots:    []string{"group", "metric", "value", "relative_difference", "direction", "reference"},
	},
	{
		Key:      TemplateSummaryParity,
		Fragment: narrative.FragmentSummary,
		Pattern:  "In {group}, {metric} is {value}, in line with the reference average of {reference}.",
		Slots:    []string{"group", "metric", "value", "reference"},
	},
	{
		Key:      TemplateKeyFindingRank,
		Fragment: narrative.FragmentKeyFinding,
		Pattern:  "{group} ranks {rank} of {rank_of} {groups} on {metric}.",
		Slots:    []string{"group", "rank", "rank_of", "groups", "metric"},
	},
	{
		Key:      TemplateKeyFindingExtrema,
		Fragment: narrative.FragmentKeyFinding,
		Pattern:  "{metric} ranges from {min_value} in {min_group} to {max_value} in {max_group}, {ratio} times the lowest level.",
		Slots:    []string{"metric", "min_value", "min_group", "max_value", "max_group", "ratio"},
	},
	{
		Key:      TemplateKeyFindingSpread,
		Fragment: narrative.FragmentKeyFinding,
		Pattern:  "{metric} ranges from {min_value} in {min_group} to {max_value} in {max_group}, a spread of {spread}.",
		Slots:    []string{"metric", "min_value", "min_group", "max_value", "max_group", "spread"},
	},
	{
		Key:      TemplateKeyFindingQuartile,
		Fragment: narrative.FragmentKeyFinding,
		Pattern:  "{metric} averages {top_value} in the quarter of areas with the highest {split_label} and {bottom_value} in the quarter with the lowest, a difference of {gap}.",
		Slots:    []string{"metric", "top_value", "split_label", "bottom_value", "gap"},
	},
	{
		Key:      TemplateKeyFindingCorrelation,
		Fragment: narrative.FragmentKeyFinding,
		Pattern:  "Across {n} areas, {metric} shows a {strength} {direction} correlation with {correlate_label} (r = {r}).",
		Slots:    []string{"n", "metric", "strength", "direction", "correlate_label", "r"},
	},
	{
		Key:      TemplateKeyFindingOutlier,
		Fragment: narrative.FragmentKeyFinding,
		Pattern:  "{outlier_count} {groups} fall outside the typical range for {metric}, led by {outlier_group} at {outlier_value}.",
		Slots:    []string{"outlier_count", "groups", "metric", "outlier_group", "outlier_value"},
	},
	{
		Key:      TemplateKeyFindingPowerLaw,
		Fragment: narrative.FragmentKeyFinding,
		Pattern:  "Across {n} areas, the provision behind {metric} grows {scaling} {size_label} (exponent {exponent}, R-squared {r_squared}).",
		Slots:    []string{"n", "metric", "scaling", "size_label", "exponent", "r_squared"},
	},
	{
		Key:      TemplateRecommendationGap,
		Fragment: narrative.FragmentRecommendation,
		Pattern:  "{below_count} of {evaluated} areas fall below the {target_label} target; closing the gap needs about {gap_units} more {provision} for {affected_weight} {weight_label}.",
		Slots:    []string{"below_count", "evaluated", "target_label", "gap_units", "provision", "affected_weight", "weight_label"},
	},
	{
		Key:      TemplateRecommendationGapRate,
		Fragment: narrative.FragmentRecommendation,
		Pattern:  "{below_count} of {evaluated} areas fall below the {target_label} target, with an average shortfall of {mean_relative_gap} among them.",
		Slots:    []string{"below_count", "evaluated", "target_label", "mean_relative_gap"},
	},
	{
		Key:      TemplateRecommendationOutlier,
		Fragment: narrative.FragmentRecommendation,
		Pattern:  "Review {outlier_group}, where {metric} of {outlier_value} lies outside the expected range of {lower_fence} to {upper_fence}.",
		Slots:    []string{"outlier_group", "metric", "outlier_value", "lower_fence", "upper_fence"},
	},
	{
		Key:      TemplateRecommendationExtrema,
		Fragment: narrative.FragmentRecommendation,
		Pattern:  "Prioritise {focus_group}, which has the {focus_position} {metric} of the {n_groups} {groups} in view.",
		Slots:    []string{"focus_group", "focus_position", "metric", "n_groups", "groups"},
	},
	{
		Key:      TemplateRecommendationQuartile,
		Fragment: narrative.FragmentRecommendation,
		Pattern:  "Target the quarter of areas with the highest {split_label}, where {metric} is {gap} {comparison} than in the quarter with the lowest.",
		Slots:    []string{"split_label", "metric", "gap", "comparison"},
	},
	{
		Key:      TemplateInvestmentEstimate,
		Fragment: narrative.FragmentInvestment,
		Pattern:  "Closing the gap would cost about {nominal_cost}, or {present_value} in present-value terms when spread over {horizon_years} years.",
		Slots:    []string{"nominal_cost", "present_value", "horizon_years"},
	},
	{
		Key:      TemplateInvestmentBenefitToCost,
		Fragment: narrative.FragmentInvestment,
		Pattern:  "Closing the gap would cost about {nominal_cost} ({present_value} in present-value terms over {horizon_years} years), with an estimated benefit-cost ratio of {bcr} over {appraisal_years} years: {band} value for money.",
		Slots:    []string{"nominal_cost", "present_value", "horizon_years", "bcr", "appraisal_years", "band"},
	},
}
