package config

import (
	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/zclconf/go-cty/cty"
)

// GenerateHCL generates HCL bytes from Config. Only attributes that
// differ from their defaults are written, so generated files stay
// close to what an operator would write by hand.
func GenerateHCL(cfg *Config) ([]byte, error) {
	f := hclwrite.NewEmptyFile()
	body := f.Body()

	if cfg.Firewall != nil {
		appendFirewallBlock(body, cfg.Firewall)
	}
	for i := range cfg.Profiles {
		appendProfileBlock(body, &cfg.Profiles[i])
	}
	for i := range cfg.Rules {
		appendRuleBlock(body, &cfg.Rules[i])
	}

	return f.Bytes(), nil
}

// appendFirewallBlock adds the firewall service block
func appendFirewallBlock(body *hclwrite.Body, fw *FirewallBlock) {
	block := body.AppendNewBlock("firewall", nil)
	blockBody := block.Body()

	if fw.Ensure != "" {
		blockBody.SetAttributeValue("ensure", cty.StringVal(fw.Ensure))
	}
}

// appendProfileBlock adds a profile block
func appendProfileBlock(body *hclwrite.Body, p *ProfileBlock) {
	block := body.AppendNewBlock("profile", []string{p.Name})
	blockBody := block.Body()

	blockBody.SetAttributeValue("enabled", cty.BoolVal(p.Enabled))
}

// appendRuleBlock adds a rule block
func appendRuleBlock(body *hclwrite.Body, r *RuleBlock) {
	block := body.AppendNewBlock("rule", []string{r.Name})
	blockBody := block.Body()

	if r.Ensure != "" && r.Ensure != "present" {
		blockBody.SetAttributeValue("ensure", cty.StringVal(r.Ensure))
	}
	if r.DisplayName != "" && r.DisplayName != r.Name {
		blockBody.SetAttributeValue("display_name", cty.StringVal(r.DisplayName))
	}
	if r.Description != "" {
		blockBody.SetAttributeValue("description", cty.StringVal(r.Description))
	}
	if r.Direction != "" {
		blockBody.SetAttributeValue("direction", cty.StringVal(r.Direction))
	}
	if r.Action != "" {
		blockBody.SetAttributeValue("action", cty.StringVal(r.Action))
	}
	if r.Enabled != nil && !*r.Enabled {
		blockBody.SetAttributeValue("enabled", cty.BoolVal(*r.Enabled))
	}
	if r.Protocol != "" {
		blockBody.SetAttributeValue("protocol", cty.StringVal(r.Protocol))
	}
	if r.LocalPort != "" {
		blockBody.SetAttributeValue("local_port", cty.StringVal(r.LocalPort))
	}
	if r.Program != "" {
		blockBody.SetAttributeValue("program", cty.StringVal(r.Program))
	}
	if r.RemoteIP != "" && r.RemoteIP != "*" {
		blockBody.SetAttributeValue("remote_ip", cty.StringVal(r.RemoteIP))
	}
	if r.EdgeTraversal {
		blockBody.SetAttributeValue("edge_traversal", cty.BoolVal(r.EdgeTraversal))
	}
	if r.Update != "" && r.Update != "update" {
		blockBody.SetAttributeValue("update", cty.StringVal(r.Update))
	}
}
