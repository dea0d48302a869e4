package hclcfg

import "github.com/hashicorp/hcl/v2"

// workflowFile mirrors the top-level structure of a workflow document:
// a sequence of job blocks.
type workflowFile struct {
	Jobs []*jobBlock `hcl:"job,block"`
}

// jobBlock is the raw HCL form of a job before translation into the model.
type jobBlock struct {
	Name     string         `hcl:"name,label"`
	On       []string       `hcl:"on,optional"`
	If       hcl.Expression `hcl:"if,optional"`
	FailFast *bool          `hcl:"fail_fast,optional"`
	Needs    []string       `hcl:"needs,optional"`
	Env      hcl.Expression `hcl:"env,optional"`
	Matrix   *matrixBlock   `hcl:"matrix,block"`
	Steps    []*stepBlock   `hcl:"step,block"`
	Remain   hcl.Body       `hcl:",remain"`
}

// matrixBlock carries the raw axis attributes; they stay opaque here so the
// translator can recover their declaration order from source ranges.
type matrixBlock struct {
	Body hcl.Body `hcl:",remain"`
}

// stepBlock is the raw HCL form of a step.
type stepBlock struct {
	Name   string         `hcl:"name,label"`
	Run    hcl.Expression `hcl:"run,optional"`
	Uses   string         `hcl:"uses,optional"`
	With   hcl.Expression `hcl:"with,optional"`
	Env    hcl.Expression `hcl:"env,optional"`
	Remain hcl.Body       `hcl:",remain"`
}
