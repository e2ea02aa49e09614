// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package hcl

import "github.com/hashicorp/hcl/v2"

// fileRoot decodes every top-level block a file may hold.
type fileRoot struct {
	Horizons   []*horizonBlock   `hcl:"horizon,block"`
	Networks   []*networkBlock   `hcl:"network,block"`
	Locations  []*locationBlock  `hcl:"location,block"`
	Linkages   []*linkageBlock   `hcl:"linkage,block"`
	Parameters []*parameterBlock `hcl:"parameter,block"`
	Resources  []*resourceBlock  `hcl:"resource,block"`
	Processes  []*processBlock   `hcl:"process,block"`
	Storages   []*storageBlock   `hcl:"storage,block"`
	Transports []*transportBlock `hcl:"transport,block"`
}

type horizonBlock struct {
	Name     string        `hcl:"name,label"`
	BottomUp *bool         `hcl:"bottom_up,optional"`
	Levels   []*levelBlock `hcl:"level,block"`
}

type levelBlock struct {
	Name   string `hcl:"name,label"`
	Length int    `hcl:"length"`
}

type networkBlock struct {
	Name   string   `hcl:"name,label"`
	Remain hcl.Body `hcl:",remain"`
}

type locationBlock struct {
	Name    string   `hcl:"name,label"`
	Parent  *string  `hcl:"parent,optional"`
	Members []string `hcl:"members,optional"`
}

type linkageBlock struct {
	Name          string `hcl:"name,label"`
	Source        string `hcl:"source"`
	Sink          string `hcl:"sink"`
	Bidirectional *bool  `hcl:"bidirectional,optional"`
}

type parameterBlock struct {
	Name  string         `hcl:"name,label"`
	Value hcl.Expression `hcl:"value"`
}

type resourceBlock struct {
	Name      string         `hcl:"name,label"`
	Locations []string       `hcl:"locations,optional"`
	Level     *string        `hcl:"level,optional"`
	Demand    hcl.Expression `hcl:"demand,optional"`
	Penalty   hcl.Expression `hcl:"penalty,optional"`
	Consume   hcl.Expression `hcl:"consume,optional"`
	Price     hcl.Expression `hcl:"price,optional"`
	Emission  hcl.Expression `hcl:"emission,optional"`
}

type processBlock struct {
	Name       string             `hcl:"name,label"`
	Locations  []string           `hcl:"locations,optional"`
	Level      *string            `hcl:"level,optional"`
	Conversion map[string]float64 `hcl:"conversion,optional"`
	Capacity   hcl.Expression     `hcl:"capacity,optional"`
	Operate    hcl.Expression     `hcl:"operate,optional"`
	Capex      hcl.Expression     `hcl:"capex,optional"`
	Opex       hcl.Expression     `hcl:"opex,optional"`
	Emission   hcl.Expression     `hcl:"emission,optional"`
	Build      *bool              `hcl:"build,optional"`
	BuildCost  hcl.Expression     `hcl:"build_cost,optional"`
}

type storageBlock struct {
	Name      string         `hcl:"name,label"`
	Resource  string         `hcl:"resource"`
	Locations []string       `hcl:"locations,optional"`
	Level     *string        `hcl:"level,optional"`
	Capacity  hcl.Expression `hcl:"capacity,optional"`
	Charge    hcl.Expression `hcl:"charge,optional"`
	Discharge hcl.Expression `hcl:"discharge,optional"`
	Capex     hcl.Expression `hcl:"capex,optional"`
	Opex      hcl.Expression `hcl:"opex,optional"`
}

type transportBlock struct {
	Name     string         `hcl:"name,label"`
	Resource string         `hcl:"resource"`
	Linkages []string       `hcl:"linkages,optional"`
	Level    *string        `hcl:"level,optional"`
	Capacity hcl.Expression `hcl:"capacity,optional"`
	Flow     hcl.Expression `hcl:"flow,optional"`
	Loss     hcl.Expression `hcl:"loss,optional"`
	Capex    hcl.Expression `hcl:"capex,optional"`
	Opex     hcl.Expression `hcl:"opex,optional"`
}
