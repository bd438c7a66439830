package snapshot

import (
	"strings"

	"github.com/tracelens-labs/tracelens/pkg/dataflow"
)

// canonicalKinds accepts the model's own kind names verbatim.
var canonicalKinds = map[dataflow.Kind]struct{}{
	dataflow.KindSource:        {},
	dataflow.KindLookup:        {},
	dataflow.KindFileSource:    {},
	dataflow.KindDestination:   {},
	dataflow.KindUnionAll:      {},
	dataflow.KindDataConvert:   {},
	dataflow.KindMergeJoin:     {},
	dataflow.KindSort:          {},
	dataflow.KindAggregate:     {},
	dataflow.KindDerivedColumn: {},
	dataflow.KindSynchronous:   {},
	dataflow.KindUnknown:       {},
}

// kindAliases maps legacy designer class ids, lowercased with spaces,
// dots and underscores removed and vendor prefixes stripped, to model
// kinds. Multicast, conditional split and row count are synchronous
// pass-throughs: their outputs reuse input lineage ids.
var kindAliases = map[string]dataflow.Kind{
	"source":              dataflow.KindSource,
	"oledbsource":         dataflow.KindSource,
	"adonetsource":        dataflow.KindSource,
	"odbcsource":          dataflow.KindSource,
	"lookup":              dataflow.KindLookup,
	"filesource":          dataflow.KindFileSource,
	"flatfilesource":      dataflow.KindFileSource,
	"excelsource":         dataflow.KindFileSource,
	"xmlsource":           dataflow.KindFileSource,
	"destination":         dataflow.KindDestination,
	"oledbdestination":    dataflow.KindDestination,
	"adonetdestination":   dataflow.KindDestination,
	"odbcdestination":     dataflow.KindDestination,
	"flatfiledestination": dataflow.KindDestination,
	"exceldestination":    dataflow.KindDestination,
	"unionall":            dataflow.KindUnionAll,
	"dataconversion":      dataflow.KindDataConvert,
	"dataconvert":         dataflow.KindDataConvert,
	"mergejoin":           dataflow.KindMergeJoin,
	"merge":               dataflow.KindMergeJoin,
	"sort":                dataflow.KindSort,
	"aggregate":           dataflow.KindAggregate,
	"derivedcolumn":       dataflow.KindDerivedColumn,
	"synchronous":         dataflow.KindSynchronous,
	"multicast":           dataflow.KindSynchronous,
	"conditionalsplit":    dataflow.KindSynchronous,
	"rowcount":            dataflow.KindSynchronous,
	"unknown":             dataflow.KindUnknown,
}

// vendorPrefixes appear on designer class ids ("Microsoft.MergeJoin",
// "DTSAdapter.OLEDBSource.1").
var vendorPrefixes = []string{"microsoft", "dtsadapter"}

// NormalizeKind maps a snapshot kind string onto the closed kind enum.
// Canonical names pass through untouched; legacy class ids are folded
// and looked up in the alias table, with a source/destination suffix
// fallback. Anything else is Unknown, which the propagator handles
// with its placeholder rule.
func NormalizeKind(s string) dataflow.Kind {
	if _, ok := canonicalKinds[dataflow.Kind(s)]; ok {
		return dataflow.Kind(s)
	}

	key := foldKind(s)
	for _, p := range vendorPrefixes {
		key = strings.TrimPrefix(key, p)
	}
	// Versioned class ids end in a numeric suffix ("oledbsource1").
	key = strings.TrimRight(key, "0123456789")

	if k, ok := kindAliases[key]; ok {
		return k
	}
	switch {
	case strings.HasSuffix(key, "source"):
		return dataflow.KindSource
	case strings.HasSuffix(key, "destination"):
		return dataflow.KindDestination
	}
	return dataflow.KindUnknown
}

// foldKind lowercases and drops separators so "Merge Join",
// "merge_join" and "Microsoft.MergeJoin" collapse to comparable keys.
func foldKind(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		switch r {
		case ' ', '.', '_', '-':
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
