package analytics

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"banvic-analytics/internal/models"
)

// UnclassifiedSegment is the catch-all bucket for customers matching no rule
const UnclassifiedSegment = "unclassified"

// SegmentRule is one threshold band, evaluated against a customer's total
// transaction value. Min is inclusive, Max is exclusive; a nil bound is open.
type SegmentRule struct {
	Label string           `json:"label"`
	Min   *decimal.Decimal `json:"min,omitempty"`
	Max   *decimal.Decimal `json:"max,omitempty"`
}

// Matches evaluates the rule against a total value
func (r SegmentRule) Matches(value decimal.Decimal) bool {
	if r.Min != nil && value.LessThan(*r.Min) {
		return false
	}
	if r.Max != nil && !value.LessThan(*r.Max) {
		return false
	}
	return true
}

// Validate checks the rule for an empty label or inverted bounds
func (r SegmentRule) Validate() error {
	if r.Label == "" {
		return fmt.Errorf("segment rule label cannot be empty")
	}
	if r.Label == UnclassifiedSegment {
		return fmt.Errorf("segment label %q is reserved", UnclassifiedSegment)
	}
	if r.Min != nil && r.Max != nil && !r.Min.LessThan(*r.Max) {
		return fmt.Errorf("segment %q has inverted bounds: min %s, max %s", r.Label, r.Min, r.Max)
	}
	return nil
}

// DefaultSegmentRules buckets customers into high/medium/low by total value.
// Rules are evaluated in order, first match wins.
func DefaultSegmentRules() []SegmentRule {
	high := decimal.NewFromInt(10000)
	medium := decimal.NewFromInt(1000)
	zero := decimal.Zero
	return []SegmentRule{
		{Label: "high", Min: &high},
		{Label: "medium", Min: &medium, Max: &high},
		{Label: "low", Min: &zero, Max: &medium},
	}
}

// SegmentBucket aggregates the customers assigned to one segment
type SegmentBucket struct {
	Label          string          `json:"segment_label"`
	CustomerCount  int             `json:"customer_count"`
	AggregateValue decimal.Decimal `json:"aggregate_value"`
}

// SegmentCustomers partitions every known customer into exactly one bucket.
// Each customer's total transaction value is evaluated against the rules in
// order; the first matching rule assigns the segment, and customers matching
// no rule land in the "unclassified" bucket. Customers without transactions
// are evaluated with a zero total, so the partition is always total: the
// bucket counts sum to the number of known customers.
func SegmentCustomers(dataset *models.Dataset, rules []SegmentRule) ([]SegmentBucket, error) {
	for _, rule := range rules {
		if err := rule.Validate(); err != nil {
			return nil, err
		}
	}

	totals := make(map[string]decimal.Decimal, len(dataset.Customers))
	for id := range dataset.Customers {
		totals[id] = decimal.Zero
	}
	for _, tx := range dataset.Transactions {
		totals[tx.CustomerID] = totals[tx.CustomerID].Add(tx.Amount)
	}

	buckets := make(map[string]*SegmentBucket, len(rules)+1)
	order := make([]string, 0, len(rules)+1)
	for _, rule := range rules {
		if _, ok := buckets[rule.Label]; !ok {
			buckets[rule.Label] = &SegmentBucket{Label: rule.Label, AggregateValue: decimal.Zero}
			order = append(order, rule.Label)
		}
	}
	buckets[UnclassifiedSegment] = &SegmentBucket{Label: UnclassifiedSegment, AggregateValue: decimal.Zero}
	order = append(order, UnclassifiedSegment)

	// iterate customers in sorted id order for stable aggregate rounding
	ids := make([]string, 0, len(totals))
	for id := range totals {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		value := totals[id]
		label := UnclassifiedSegment
		for _, rule := range rules {
			if rule.Matches(value) {
				label = rule.Label
				break
			}
		}
		bucket := buckets[label]
		bucket.CustomerCount++
		bucket.AggregateValue = bucket.AggregateValue.Add(value)
	}

	result := make([]SegmentBucket, 0, len(order))
	for _, label := range order {
		result = append(result, *buckets[label])
	}
	return result, nil
}
