// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package scenario loads YAML scenarios and plays them against an engine.
package scenario

import (
	"bytes"
	"os"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/vechain/incentives/builtin/brokerpool"
	"github.com/vechain/incentives/builtin/policy"
	"github.com/vechain/incentives/builtin/sponsorship"
	"github.com/vechain/incentives/thor"
)

// Scenario is a set of contracts and the steps run against them.
type Scenario struct {
	Name         string            `yaml:"name"`
	Start        uint64            `yaml:"start"`
	Accounts     map[string]Amount `yaml:"accounts"`
	Sponsorships []SponsorshipSpec `yaml:"sponsorships"`
	Pools        []PoolSpec        `yaml:"pools"`
	Steps        []Step            `yaml:"steps"`
}

type PolicySpec struct {
	Name  string `yaml:"name"`
	Param Amount `yaml:"param"`
}

func (p *PolicySpec) config() policy.Config {
	if p == nil {
		return policy.Config{}
	}
	cfg := policy.Config{Name: p.Name}
	if p.Param.IsSet() {
		cfg.Param = p.Param.Value()
	}
	return cfg
}

type SponsorshipSpec struct {
	Name             string       `yaml:"name"`
	Owner            string       `yaml:"owner"`
	MinimumStake     Amount       `yaml:"minimumStake"`
	MinOperatorCount uint64       `yaml:"minOperatorCount"`
	Allocation       *PolicySpec  `yaml:"allocation"`
	Leave            *PolicySpec  `yaml:"leave"`
	Kick             *PolicySpec  `yaml:"kick"`
	Join             []PolicySpec `yaml:"join"`
}

func (s *SponsorshipSpec) config() *sponsorship.Config {
	cfg := &sponsorship.Config{
		Owner:            Account(s.Owner),
		MinimumStake:     s.MinimumStake.Value(),
		MinOperatorCount: s.MinOperatorCount,
		Policies: policy.Configs{
			Allocation: s.Allocation.config(),
			Leave:      s.Leave.config(),
			Kick:       s.Kick.config(),
		},
	}
	for i := range s.Join {
		cfg.Policies.Join = append(cfg.Policies.Join, s.Join[i].config())
	}
	return cfg
}

type PoolSpec struct {
	Name                      string `yaml:"name"`
	Operator                  string `yaml:"operator"`
	MinOperatorStakePercent   uint64 `yaml:"minOperatorStakePercent"`
	MaintenanceMarginPercent  uint64 `yaml:"maintenanceMarginPercent"`
	OperatorSharePercent      uint64 `yaml:"operatorSharePercent"`
	MaxDivertPercent          uint64 `yaml:"maxDivertPercent"`
	MaxQueueSeconds           uint64 `yaml:"maxQueueSeconds"`
	StalenessThresholdPercent uint64 `yaml:"stalenessThresholdPercent"`
	StalenessFeePercent       uint64 `yaml:"stalenessFeePercent"`
	MaxSponsorships           uint64 `yaml:"maxSponsorships"`
}

func (p *PoolSpec) config() *brokerpool.Config {
	return &brokerpool.Config{
		Operator:                  Account(p.Operator),
		MinOperatorStakePercent:   p.MinOperatorStakePercent,
		MaintenanceMarginPercent:  p.MaintenanceMarginPercent,
		OperatorSharePercent:      p.OperatorSharePercent,
		MaxDivertPercent:          p.MaxDivertPercent,
		MaxQueueSeconds:           p.MaxQueueSeconds,
		StalenessThresholdPercent: p.StalenessThresholdPercent,
		StalenessFeePercent:       p.StalenessFeePercent,
		MaxSponsorships:           p.MaxSponsorships,
	}
}

// Step is one call, made after moving the clock forward by Advance seconds.
type Step struct {
	Advance       uint64   `yaml:"advance"`
	Op            string   `yaml:"op"`
	Sponsorship   string   `yaml:"sponsorship"`
	Pool          string   `yaml:"pool"`
	From          string   `yaml:"from"`
	Target        string   `yaml:"target"`
	Amount        Amount   `yaml:"amount"`
	Kick          bool     `yaml:"kick"`
	Sponsorships  []string `yaml:"sponsorships"`
	MaxIterations int      `yaml:"maxIterations"`
	ExpectRevert  string   `yaml:"expectRevert"`
	Expect        *Expect  `yaml:"expect"`
}

// Expect holds the values a check step asserts. Unset fields are not checked.
type Expect struct {
	Account     string  `yaml:"account"`
	Balance     Amount  `yaml:"balance"`
	Stake       Amount  `yaml:"stake"`
	Allocation  Amount  `yaml:"allocation"`
	Shares      Amount  `yaml:"shares"`
	PoolValue   Amount  `yaml:"poolValue"`
	QueueLength *uint64 `yaml:"queueLength"`
	Running     *bool   `yaml:"running"`
}

// Account maps a name to an address. Hex strings are taken as they are.
func Account(name string) thor.Address {
	if strings.HasPrefix(name, "0x") {
		if addr, err := thor.ParseAddress(name); err == nil {
			return *addr
		}
	}
	return thor.BytesToAddress([]byte(name))
}

// Parse decodes a scenario. Unknown fields are rejected.
func Parse(data []byte) (*Scenario, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var sc Scenario
	if err := dec.Decode(&sc); err != nil {
		return nil, errors.Wrap(err, "decode scenario")
	}
	if err := sc.validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

// Load reads and parses the scenario at path.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	sc, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "load %v", path)
	}
	if sc.Name == "" {
		sc.Name = strings.TrimSuffix(path[strings.LastIndexAny(path, `/\`)+1:], ".yaml")
	}
	return sc, nil
}

func (sc *Scenario) validate() error {
	names := make(map[string]bool)
	for _, s := range sc.Sponsorships {
		if s.Name == "" || names[s.Name] {
			return errors.Errorf("sponsorship name %q is empty or taken", s.Name)
		}
		names[s.Name] = true
	}
	for _, p := range sc.Pools {
		if p.Name == "" || names[p.Name] {
			return errors.Errorf("pool name %q is empty or taken", p.Name)
		}
		names[p.Name] = true
	}
	for i, st := range sc.Steps {
		if _, ok := ops[st.Op]; !ok {
			return errors.Errorf("step %d: unknown op %q", i, st.Op)
		}
	}
	return nil
}
