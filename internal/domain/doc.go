// Package domain models the COVID-19 statistics shown on the dashboard and the
// transformations that turn raw upstream series into chart and table views.
//
// # Data Sources
//
// An upstream collector (outside this service) fetches three payloads on a
// schedule and publishes each one, whole, as a single message on the Kafka
// source topic. The message carries a "source_kind" header naming the payload
// and the JSON envelope repeats it in a "kind" field:
//
//	national  daily nationwide counts, one object per calendar day
//	province  per-province counts for the latest day
//	vaccine   first and second dose administration series
//
// # Upstream Conventions
//
// National days:
//
//	{"date":"27/4","community":12,"totalCommunity":2851,"deaths":0, ...}
//	"community" is the number of new community-transmitted cases that day and
//	"totalCommunity" the running total. Days arrive oldest first.
//
// Provinces:
//
//	{"x":"Hà Nội","y":120,"z":4500}
//	x is the province name, y today's new cases, z the province total.
//
// Vaccine doses:
//
//	{"x":1627776000000,"y":80321,"z":5439021}
//	x is the period start in Unix milliseconds, y doses administered in the
//	period, z cumulative doses. Labels are rendered as dates in Vietnam time
//	(UTC+7). Each dose block also carries lastUpdated, toDay and total, and the
//	payload carries firstRatio/secondRatio coverage precomputed upstream.
//
// Numeric fields may arrive as JSON numbers or as numeric strings. A missing
// or non-numeric required field makes that single record malformed; the record
// is dropped and the rest of the series is kept, so a partial upstream outage
// never blanks the dashboard.
//
// # Canonical Form
//
// Every source is reduced to [CanonicalPoint] {label, incremental, cumulative}.
// Normalization never sorts: input order is the deterministic tie-breaker used
// by [Rank], which is a stable descending sort.
package domain
