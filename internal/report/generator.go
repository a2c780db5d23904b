package report

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/dynoinc/incidentreport/internal/incident"
)

var ErrColumnNotFound = errors.New("column not found")

// Flat lists one row per incident. Unless full is set the description is shortened.
func Flat(incidents []incident.Incident, full bool) Report {
	rows := make([][]string, 0, len(incidents))
	for _, i := range incidents {
		description := i.ShortDescription()
		if full {
			description = i.Description()
		}

		rows = append(rows, []string{
			i.Number(),
			i.CreatedAt(),
			description,
			i.AcknowledgedBy(),
			i.Status(),
			i.Urgency(),
			i.HTMLURL(),
		})
	}

	return Report{Header: slices.Clone(FlatHeader), Rows: rows}
}

type bucket struct {
	label string
	count int
}

// Group counts the distinct values of column in flat. The column name is
// matched case-insensitively. Groups are ordered by descending count, ties
// keeping the order in which the groups were first seen.
//
// In fuzzy mode each value joins the most similar existing group when the
// similarity reaches opts.Threshold. A group keeps the label of the value that
// created it, so the result depends on row order.
func Group(flat Report, column string, opts GroupOptions) (Report, error) {
	index := slices.IndexFunc(flat.Header, func(h string) bool {
		return strings.EqualFold(h, column)
	})
	if index < 0 {
		return Report{}, fmt.Errorf("%w: %s", ErrColumnNotFound, column)
	}

	var buckets []bucket
	if opts.Fuzzy {
		buckets = fuzzyBuckets(flat.Rows, index, opts.Threshold)
	} else {
		buckets = exactBuckets(flat.Rows, index)
	}

	slices.SortStableFunc(buckets, func(a, b bucket) int {
		return cmp.Compare(b.count, a.count)
	})

	rows := make([][]string, 0, len(buckets))
	for _, b := range buckets {
		rows = append(rows, []string{b.label, strconv.Itoa(b.count)})
	}

	return Report{
		Header: []string{titleCase(column), ColumnCount},
		Rows:   rows,
	}, nil
}

func exactBuckets(rows [][]string, index int) []bucket {
	var buckets []bucket
	seen := make(map[string]int)
	for _, row := range rows {
		value := row[index]
		if i, ok := seen[value]; ok {
			buckets[i].count++
			continue
		}

		seen[value] = len(buckets)
		buckets = append(buckets, bucket{label: value, count: 1})
	}
	return buckets
}

func fuzzyBuckets(rows [][]string, index int, threshold int) []bucket {
	var buckets []bucket
	for _, row := range rows {
		value := row[index]

		best, bestScore := -1, -1
		for i, b := range buckets {
			if score := Similarity(b.label, value); score > bestScore {
				best, bestScore = i, score
			}
		}

		if best >= 0 && bestScore >= threshold {
			buckets[best].count++
			continue
		}

		buckets = append(buckets, bucket{label: value, count: 1})
	}
	return buckets
}

// Full builds the three views of a full report: the flat listing, then counts
// by description and by acknowledger.
func Full(incidents []incident.Incident, full bool, opts GroupOptions) ([]Report, error) {
	flat := Flat(incidents, full)

	byDescription, err := Group(flat, ColumnDescription, opts)
	if err != nil {
		return nil, err
	}

	byAck, err := Group(flat, ColumnAck, opts)
	if err != nil {
		return nil, err
	}

	return []Report{flat, byDescription, byAck}, nil
}

// titleCase capitalizes every underscore separated word: "html_url" is "Html_Url".
func titleCase(s string) string {
	words := strings.Split(s, "_")
	caser := cases.Title(language.Und)
	for i, w := range words {
		words[i] = caser.String(w)
	}
	return strings.Join(words, "_")
}
