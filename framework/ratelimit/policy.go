package ratelimit

import "github.com/3scale-qe/testsuite/test/framework/threescale"

// Scope of a limiter key.
type Scope string

const (
	// ScopeService shares the bucket between applications of one service
	ScopeService Scope = "service"

	// ScopeGlobal shares the bucket between services
	ScopeGlobal Scope = "global"
)

// Key names the bucket of a limiter.
type Key struct {
	Name string `json:"name"`

	// NameType is "plain" or "liquid"
	NameType string `json:"name_type"`
	Scope    Scope  `json:"scope"`
}

// Operation is a single comparison of a condition.
type Operation struct {
	Left      string `json:"left"`
	LeftType  string `json:"left_type"`
	Op        string `json:"op"`
	Right     string `json:"right"`
	RightType string `json:"right_type"`
}

// Condition decides whether a limiter applies to a request.
type Condition struct {
	CombineOp  string      `json:"combine_op"`
	Operations []Operation `json:"operations"`
}

// LeakyBucket is a limiter allowing rate requests per second plus burst.
type LeakyBucket struct {
	Key       Key        `json:"key"`
	Rate      int        `json:"rate"`
	Burst     int        `json:"burst"`
	Condition *Condition `json:"condition,omitempty"`
}

// PlainKey is a literal bucket name.
func PlainKey(name string, scope Scope) Key {
	return Key{Name: name, NameType: "plain", Scope: scope}
}

// LiquidKey is a bucket name rendered per request.
func LiquidKey(template string, scope Scope) Key {
	return Key{Name: template, NameType: "liquid", Scope: scope}
}

// Always is a condition that holds for every request.
func Always() *Condition {
	return &Condition{CombineOp: "and", Operations: []Operation{
		{Left: "1", LeftType: "plain", Op: "==", Right: "1", RightType: "plain"},
	}}
}

// Never is a condition no request satisfies.
func Never() *Condition {
	return &Condition{CombineOp: "and", Operations: []Operation{
		{Left: "1", LeftType: "plain", Op: "==", Right: "2", RightType: "plain"},
	}}
}

// LiquidMatches compares a rendered liquid expression with a pattern.
func LiquidMatches(expr, op, pattern string) *Condition {
	return &Condition{CombineOp: "and", Operations: []Operation{
		{Left: expr, LeftType: "liquid", Op: op, Right: pattern, RightType: "plain"},
	}}
}

// Policy builds the rate_limit policy with the given leaky bucket limiters.
func Policy(limiters ...LeakyBucket) threescale.Policy {
	return threescale.Policy{
		Name:    "rate_limit",
		Version: "builtin",
		Enabled: true,
		Configuration: map[string]any{
			"leaky_bucket_limiters": limiters,
		},
	}
}

// Case is one leaky bucket configuration under test.
type Case struct {
	Name    string
	Policy  threescale.Policy
	Applied bool
	Scope   Scope

	// Prepend puts the policy in front of the chain instead of appending it
	Prepend bool
}

// LeakyBucketCases returns the scenario table. Limiters use rate 1 and
// burst 1 so a burst of TotalRequests is rejected partially when they apply.
func LeakyBucketCases() []Case {
	bucket := func(key Key, cond *Condition) LeakyBucket {
		return LeakyBucket{Key: key, Rate: 1, Burst: 1, Condition: cond}
	}
	var cases []Case
	for _, scope := range []Scope{ScopeService, ScopeGlobal} {
		for _, applied := range []bool{true, false} {
			cond := Never()
			if applied {
				cond = Always()
			}
			suffix := string(scope) + "_" + boolName(applied)
			cases = append(cases,
				Case{
					Name:    "bucket_" + suffix,
					Policy:  Policy(bucket(PlainKey("leaky_bucket", scope), cond)),
					Applied: applied,
					Scope:   scope,
				},
				Case{
					Name: "multiple_bucket_" + suffix,
					Policy: Policy(
						bucket(PlainKey("leaky_bucket_1", scope), cond),
						bucket(PlainKey("leaky_bucket_2", scope), cond),
					),
					Applied: applied,
					Scope:   scope,
				},
			)
			if scope == ScopeGlobal {
				cases = append(cases, Case{
					Name: "multiple_prepend_bucket_" + suffix,
					Policy: Policy(
						bucket(PlainKey("leaky_bucket_1", scope), cond),
						bucket(PlainKey("leaky_bucket_2", scope), cond),
					),
					Applied: applied,
					Scope:   scope,
					Prepend: true,
				})
			}
		}
	}

	for _, applied := range []bool{true, false} {
		right := "/get"
		pattern := "/g.*"
		if !applied {
			right = "/anything"
			pattern = "/nothing.*"
		}
		cases = append(cases,
			Case{
				Name:    "liquid_service_" + boolName(applied),
				Policy:  Policy(bucket(LiquidKey("{{ service.id }}", ScopeService), LiquidMatches("{{ uri }}", "==", right))),
				Applied: applied,
				Scope:   ScopeService,
			},
			Case{
				Name:    "liquid_matches_" + boolName(applied),
				Policy:  Policy(bucket(LiquidKey("{{ host }}", ScopeGlobal), LiquidMatches("{{ uri }}", "matches", pattern))),
				Applied: applied,
				Scope:   ScopeGlobal,
			},
		)
	}
	return cases
}

func boolName(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
