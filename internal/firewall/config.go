package firewall

import (
	"errors"
	"fmt"

	"grimm.is/palisade/internal/config"
)

// RuleFromBlock maps one config rule block onto the domain model. The
// block's flat protocol/local_port/program fields become the tagged
// selector; populating both sides is preserved so validation can reject it.
func RuleFromBlock(b config.RuleBlock) *Rule {
	r := &Rule{
		Name:          b.Name,
		Ensure:        Ensure(b.Ensure),
		Direction:     Direction(b.Direction),
		Action:        Action(b.Action),
		Enabled:       true,
		RemoteIP:      b.RemoteIP,
		DisplayName:   b.DisplayName,
		Description:   b.Description,
		EdgeTraversal: b.EdgeTraversal,
		UpdatePolicy:  UpdatePolicy(b.Update),
	}

	if b.Enabled != nil {
		r.Enabled = *b.Enabled
	}

	if b.Protocol != "" || b.LocalPort != "" {
		r.PortProtocol = &PortProtocol{
			Protocol:  Protocol(b.Protocol),
			LocalPort: b.LocalPort,
		}
	}
	if b.Program != "" {
		r.Program = &Program{Path: b.Program}
	}

	r.Normalize()
	return r
}

// RulesFromConfig converts every rule block and validates the result,
// aggregating failures across rules so a bad catalog reports everything
// wrong at once. Rules come back in config order.
func RulesFromConfig(cfg *config.Config) ([]*Rule, error) {
	var (
		rules []*Rule
		errs  config.ValidationErrors
	)

	for _, block := range cfg.Rules {
		r := RuleFromBlock(block)
		if err := ValidateRule(r); err != nil {
			var verr config.ValidationError
			if errors.As(err, &verr) {
				verr.Field = fmt.Sprintf("rule[%s].%s", block.Name, verr.Field)
				errs = append(errs, verr)
			} else {
				errs = append(errs, config.ValidationError{
					Field:   fmt.Sprintf("rule[%s]", block.Name),
					Message: err.Error(),
				})
			}
			continue
		}
		rules = append(rules, r)
	}

	if errs.HasErrors() {
		return nil, errs
	}
	return rules, nil
}
