// Package security implements the pre-authentication traffic gate: a per-role
// sliding-window rate limit folded together with an external bot/shield verdict.
package security

import (
	"context"
	"errors"
	"fmt"
)

// Verdict is the classification of a single request.
type Verdict string

const (
	VerdictClean     Verdict = "clean"
	VerdictBot       Verdict = "bot"
	VerdictShield    Verdict = "shield"
	VerdictRateLimit Verdict = "rateLimit"
)

// severity orders denials: bot > shield > rateLimit > clean.
var severity = map[Verdict]int{
	VerdictClean:     0,
	VerdictRateLimit: 1,
	VerdictShield:    2,
	VerdictBot:       3,
}

// ParseVerdict accepts the wire names used by classifiers.
func ParseVerdict(s string) (Verdict, error) {
	v := Verdict(s)
	if _, ok := severity[v]; !ok {
		return VerdictClean, fmt.Errorf("unknown verdict %q", s)
	}
	return v, nil
}

// RiskRequest is what a classifier sees of the request.
type RiskRequest struct {
	IP        string `json:"ip"`
	UserAgent string `json:"user_agent"`
	Method    string `json:"method"`
	Path      string `json:"path"`
	Role      string `json:"role"`
}

// RiskClassifier is the external bot and anomaly detector.
type RiskClassifier interface {
	Classify(ctx context.Context, req RiskRequest) (Verdict, error)
}

// NoopClassifier reports every request as clean.
type NoopClassifier struct{}

// Classify implements RiskClassifier.
func (NoopClassifier) Classify(context.Context, RiskRequest) (Verdict, error) {
	return VerdictClean, nil
}

// ClassifierFunc adapts a function to RiskClassifier.
type ClassifierFunc func(ctx context.Context, req RiskRequest) (Verdict, error)

// Classify implements RiskClassifier.
func (f ClassifierFunc) Classify(ctx context.Context, req RiskRequest) (Verdict, error) {
	return f(ctx, req)
}

// ChainClassifier asks every classifier and keeps the most severe verdict.
// A bot verdict short-circuits the remaining classifiers.
type ChainClassifier []RiskClassifier

// Classify implements RiskClassifier.
func (chain ChainClassifier) Classify(ctx context.Context, req RiskRequest) (Verdict, error) {
	worst := VerdictClean
	var errs []error
	for _, c := range chain {
		v, err := c.Classify(ctx, req)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if severity[v] > severity[worst] {
			worst = v
		}
		if worst == VerdictBot {
			return worst, nil
		}
	}
	if worst == VerdictClean && len(errs) > 0 {
		return VerdictClean, errors.Join(errs...)
	}
	return worst, nil
}
