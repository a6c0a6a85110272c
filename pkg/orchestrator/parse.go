package orchestrator

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aretw0/tendril/pkg/domain"
	"github.com/mitchellh/mapstructure"
)

// stripFences removes a surrounding markdown code fence, with or without a language tag.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	} else {
		s = ""
	}
	s = strings.TrimSpace(s)
	return strings.TrimSpace(strings.TrimSuffix(s, "```"))
}

// decodeJSON parses a model reply into out through a generic value, so the
// mapstructure tags on domain types define the accepted field names.
func decodeJSON(raw string, out any) error {
	var generic any
	if err := json.Unmarshal([]byte(stripFences(raw)), &generic); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrParse, err)
	}
	if generic == nil {
		return fmt.Errorf("%w: null reply", domain.ErrParse)
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
	})
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrParse, err)
	}
	if err := dec.Decode(generic); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrParse, err)
	}
	return nil
}

// parseAnalysis decodes the analysis reply. Only a JSON object is accepted.
func parseAnalysis(raw string) (domain.Analysis, error) {
	var a domain.Analysis
	if err := decodeJSON(raw, &a); err != nil {
		return domain.Analysis{}, err
	}
	if a.Domains == nil {
		a.Domains = []string{}
	}
	return a, nil
}

// parsePlan decodes the planning reply. An empty array is an error.
func parsePlan(raw string) (domain.StepPlan, error) {
	var plan domain.StepPlan
	if err := decodeJSON(raw, &plan); err != nil {
		return nil, err
	}
	if len(plan) == 0 {
		return nil, fmt.Errorf("%w: plan has no steps", domain.ErrParse)
	}
	return plan, nil
}
